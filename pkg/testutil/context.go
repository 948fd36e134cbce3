package testutil

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	id "homeloan/pkg/domain"
	"homeloan/pkg/requestcontext"
)

// WithActor adds an authenticated principal to the request context.
// This simulates what the auth middleware does for authenticated requests.
func WithActor(req *http.Request, p requestcontext.Principal) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), p))
}

// WithTime pins the request-scoped clock.
func WithTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// Buyer returns a fresh buyer principal.
func Buyer() requestcontext.Principal {
	return requestcontext.Principal{UserID: id.UserID(uuid.New()), Role: id.RoleBuyer}
}

// Reviewer returns a fresh reviewer principal for bank.
func Reviewer(bank id.BankID) requestcontext.Principal {
	return requestcontext.Principal{UserID: id.UserID(uuid.New()), Role: id.RoleReviewer, BankID: bank}
}

// Admin returns a fresh admin principal.
func Admin() requestcontext.Principal {
	return requestcontext.Principal{UserID: id.UserID(uuid.New()), Role: id.RoleAdmin}
}
