package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/sentinel"
)

// Contact is where a user wants to be told about their loan.
type Contact struct {
	Email string
	Name  string
}

// Directory resolves users to contacts. Identity lives outside this service,
// so an unknown user returns sentinel.ErrNotFound.
type Directory interface {
	Lookup(ctx context.Context, userID id.UserID) (Contact, error)
}

// StaticDirectory is an in-process directory.
type StaticDirectory struct {
	mu       sync.RWMutex
	contacts map[id.UserID]Contact
}

func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{contacts: make(map[id.UserID]Contact)}
}

func (d *StaticDirectory) Put(userID id.UserID, c Contact) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[userID] = c
}

func (d *StaticDirectory) Lookup(_ context.Context, userID id.UserID) (Contact, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.contacts[userID]
	if !ok {
		return Contact{}, sentinel.ErrNotFound
	}
	return c, nil
}

// RedisDirectory reads contacts written by the identity service as hashes
// at homeloan:contact:<user id> with fields email and name.
type RedisDirectory struct {
	client redis.UniversalClient
}

func NewRedisDirectory(client redis.UniversalClient) *RedisDirectory {
	return &RedisDirectory{client: client}
}

func contactKey(userID id.UserID) string {
	return "homeloan:contact:" + userID.String()
}

func (d *RedisDirectory) Lookup(ctx context.Context, userID id.UserID) (Contact, error) {
	fields, err := d.client.HGetAll(ctx, contactKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Contact{}, sentinel.ErrNotFound
		}
		return Contact{}, fmt.Errorf("lookup contact: %w", err)
	}
	if fields["email"] == "" {
		return Contact{}, sentinel.ErrNotFound
	}
	return Contact{Email: fields["email"], Name: fields["name"]}, nil
}

// Put stores a contact. Used by tests and the local seed.
func (d *RedisDirectory) Put(ctx context.Context, userID id.UserID, c Contact) error {
	return d.client.HSet(ctx, contactKey(userID), "email", c.Email, "name", c.Name).Err()
}
