package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"homeloan/internal/application/models"
	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/sentinel"
	txcontext "homeloan/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists applications as a JSONB document plus the columns
// listings filter on.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, app *models.LoanApplication) error {
	data, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal application: %w", err)
	}
	const query = `
		INSERT INTO loan_applications (id, property_id, buyer_id, bank_id, status, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(app.ID),
		uuid.UUID(app.PropertyID),
		uuid.UUID(app.BuyerID),
		uuid.UUID(app.BankID),
		string(app.Status),
		app.CreatedAt,
		app.UpdatedAt,
		data,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.LoanApplication, error) {
	return s.find(ctx, s.execer(ctx), appID, false)
}

func (s *PostgresStore) find(ctx context.Context, exec dbExecutor, appID id.ApplicationID, forUpdate bool) (*models.LoanApplication, error) {
	query := `SELECT data FROM loan_applications WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	var data []byte
	if err := exec.QueryRowContext(ctx, query, uuid.UUID(appID)).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	var app models.LoanApplication
	if err := json.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	return &app, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.LoanApplication, error) {
	filter.Normalize()
	var (
		conds []string
		args  []any
	)
	if !filter.BuyerID.IsNil() {
		args = append(args, uuid.UUID(filter.BuyerID))
		conds = append(conds, fmt.Sprintf("buyer_id = $%d", len(args)))
	}
	if !filter.BankID.IsNil() {
		args = append(args, uuid.UUID(filter.BankID))
		conds = append(conds, fmt.Sprintf("bank_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		args = append(args, pq.Array(statuses))
		conds = append(conds, fmt.Sprintf("status = ANY($%d::text[])", len(args)))
	}

	query := `SELECT data FROM loan_applications`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.LoanApplication, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		var app models.LoanApplication
		if err := json.Unmarshal(data, &app); err != nil {
			return nil, fmt.Errorf("decode application: %w", err)
		}
		out = append(out, &app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

// Execute locks the row with SELECT ... FOR UPDATE, runs validate and mutate,
// and writes the result back. It joins the transaction on ctx or opens its own.
func (s *PostgresStore) Execute(ctx context.Context, appID id.ApplicationID, validate func(*models.LoanApplication) error, mutate func(*models.LoanApplication)) (*models.LoanApplication, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.execute(ctx, tx, appID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	app, err := s.execute(ctx, tx, appID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) execute(ctx context.Context, tx *sql.Tx, appID id.ApplicationID, validate func(*models.LoanApplication) error, mutate func(*models.LoanApplication)) (*models.LoanApplication, error) {
	app, err := s.find(ctx, tx, appID, true)
	if err != nil {
		return nil, err
	}
	if err := validate(app); err != nil {
		return nil, err
	}
	mutate(app)

	data, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("marshal application: %w", err)
	}
	const query = `UPDATE loan_applications SET status = $2, updated_at = $3, data = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, uuid.UUID(app.ID), string(app.Status), app.UpdatedAt, data); err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	return app, nil
}
