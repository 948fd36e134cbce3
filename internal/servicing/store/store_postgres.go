package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"homeloan/internal/servicing/models"
	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/sentinel"
	txcontext "homeloan/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore keeps the mortgage header in `mortgages` and one row per
// scheduled period in `payment_records`, keyed by (mortgage_id, payment_number).
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

const mortgageColumns = `
	id, application_id, property_id, buyer_id, bank_id, product_id,
	loan_amount, down_payment, term_years, interest_rate, monthly_payment, total_payments,
	start_date, first_payment_date, payments_made, remaining_balance, total_paid, status,
	auto_pay, auto_pay_enabled_at, auto_pay_disabled_at, cancel_reason, closed_at,
	version, created_at, updated_at`

// CreateIfAbsentForApplication inserts the mortgage and its schedule. The unique
// index on application_id turns a second origination into sentinel.ErrAlreadyUsed.
func (s *PostgresStore) CreateIfAbsentForApplication(ctx context.Context, m *models.Mortgage) error {
	if tx, ok := txcontext.From(ctx); ok {
		return s.create(ctx, tx, m)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := s.create(ctx, tx, m); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) create(ctx context.Context, exec dbExecutor, m *models.Mortgage) error {
	const query = `INSERT INTO mortgages (` + mortgageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, 1, $24, $25)`
	_, err := exec.ExecContext(ctx, query,
		uuid.UUID(m.ID), uuid.UUID(m.ApplicationID), nullableUUID(uuid.UUID(m.PropertyID)),
		uuid.UUID(m.BuyerID), uuid.UUID(m.BankID), m.ProductID,
		m.LoanAmount, m.DownPayment, m.TermYears, m.InterestRate, m.MonthlyPayment, m.TotalPayments,
		m.StartDate, m.FirstPaymentDate, m.PaymentsMade, m.RemainingBalance, m.TotalPaid, string(m.Status),
		m.AutoPay, m.AutoPayEnabledAt, m.AutoPayDisabledAt, m.CancelReason, m.ClosedAt,
		m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert mortgage: %w", err)
	}

	n := len(m.Payments)
	numbers := make([]int64, n)
	dueDates := make([]string, n)
	amounts := make([]string, n)
	principals := make([]string, n)
	interests := make([]string, n)
	statuses := make([]string, n)
	for i, rec := range m.Payments {
		numbers[i] = int64(rec.PaymentNumber)
		dueDates[i] = rec.DueDate.UTC().Format(time.RFC3339Nano)
		amounts[i] = rec.AmountDue.String()
		principals[i] = rec.Principal.String()
		interests[i] = rec.Interest.String()
		statuses[i] = string(rec.Status)
	}
	const recordsQuery = `
		INSERT INTO payment_records (mortgage_id, payment_number, due_date, amount_due, principal, interest, status)
		SELECT $1, * FROM unnest($2::int[], $3::timestamptz[], $4::numeric[], $5::numeric[], $6::numeric[], $7::text[])
	`
	_, err = exec.ExecContext(ctx, recordsQuery, uuid.UUID(m.ID),
		pq.Array(numbers), pq.Array(dueDates), pq.Array(amounts),
		pq.Array(principals), pq.Array(interests), pq.Array(statuses),
	)
	if err != nil {
		return fmt.Errorf("insert payment records: %w", err)
	}
	m.Version = 1
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, mortgageID id.MortgageID) (*models.Mortgage, error) {
	return s.find(ctx, s.execer(ctx), `id = $1`, uuid.UUID(mortgageID), false)
}

func (s *PostgresStore) FindByApplication(ctx context.Context, appID id.ApplicationID) (*models.Mortgage, error) {
	return s.find(ctx, s.execer(ctx), `application_id = $1`, uuid.UUID(appID), false)
}

func (s *PostgresStore) find(ctx context.Context, exec dbExecutor, where string, arg any, forUpdate bool) (*models.Mortgage, error) {
	query := `SELECT ` + mortgageColumns + ` FROM mortgages WHERE ` + where
	if forUpdate {
		query += ` FOR UPDATE`
	}
	m, err := scanMortgage(exec.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find mortgage: %w", err)
	}
	records, err := s.loadRecords(ctx, exec, m.ID)
	if err != nil {
		return nil, err
	}
	m.Payments = records
	return m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMortgage(row rowScanner) (*models.Mortgage, error) {
	var (
		m                               models.Mortgage
		mID, appID, buyerID, bankID     uuid.UUID
		propertyID                      uuid.NullUUID
		status                          string
		enabledAt, disabledAt, closedAt sql.NullTime
		loanAmount, down, rate, monthly decimal.Decimal
		balance, totalPaid              decimal.Decimal
	)
	err := row.Scan(
		&mID, &appID, &propertyID, &buyerID, &bankID, &m.ProductID,
		&loanAmount, &down, &m.TermYears, &rate, &monthly, &m.TotalPayments,
		&m.StartDate, &m.FirstPaymentDate, &m.PaymentsMade, &balance, &totalPaid, &status,
		&m.AutoPay, &enabledAt, &disabledAt, &m.CancelReason, &closedAt,
		&m.Version, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ID = id.MortgageID(mID)
	m.ApplicationID = id.ApplicationID(appID)
	if propertyID.Valid {
		m.PropertyID = id.PropertyID(propertyID.UUID)
	}
	m.BuyerID = id.UserID(buyerID)
	m.BankID = id.BankID(bankID)
	m.LoanAmount, m.DownPayment, m.InterestRate, m.MonthlyPayment = loanAmount, down, rate, monthly
	m.RemainingBalance, m.TotalPaid = balance, totalPaid
	m.Status = models.Status(status)
	m.AutoPayEnabledAt = timePtr(enabledAt)
	m.AutoPayDisabledAt = timePtr(disabledAt)
	m.ClosedAt = timePtr(closedAt)
	m.StartDate = m.StartDate.UTC()
	m.FirstPaymentDate = m.FirstPaymentDate.UTC()
	return &m, nil
}

func (s *PostgresStore) loadRecords(ctx context.Context, exec dbExecutor, mortgageID id.MortgageID) ([]models.PaymentRecord, error) {
	const query = `
		SELECT payment_number, due_date, amount_due, principal, interest, amount_paid, status,
		       paid_at, method, transaction_id, notes
		FROM payment_records
		WHERE mortgage_id = $1
		ORDER BY payment_number
	`
	rows, err := exec.QueryContext(ctx, query, uuid.UUID(mortgageID))
	if err != nil {
		return nil, fmt.Errorf("query payment records: %w", err)
	}
	defer rows.Close()

	records := make([]models.PaymentRecord, 0)
	for rows.Next() {
		var (
			rec                 models.PaymentRecord
			amountPaid          decimal.NullDecimal
			status              string
			paidAt              sql.NullTime
			method, txID, notes sql.NullString
		)
		if err := rows.Scan(&rec.PaymentNumber, &rec.DueDate, &rec.AmountDue, &rec.Principal, &rec.Interest,
			&amountPaid, &status, &paidAt, &method, &txID, &notes); err != nil {
			return nil, fmt.Errorf("scan payment record: %w", err)
		}
		rec.DueDate = rec.DueDate.UTC()
		if amountPaid.Valid {
			rec.AmountPaid = amountPaid.Decimal
		}
		rec.Status = models.PaymentStatus(status)
		rec.PaidAt = timePtr(paidAt)
		rec.Method = models.PaymentMethod(method.String)
		rec.TransactionID = txID.String
		rec.Notes = notes.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment records: %w", err)
	}
	return records, nil
}

// List returns matching mortgages, newest first, with their payment records.
func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Mortgage, error) {
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
	if filter.AutoPay != nil {
		args = append(args, *filter.AutoPay)
		conds = append(conds, fmt.Sprintf("auto_pay = $%d", len(args)))
	}

	query := `SELECT ` + mortgageColumns + ` FROM mortgages`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	exec := s.execer(ctx)
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mortgages: %w", err)
	}
	out := make([]*models.Mortgage, 0)
	for rows.Next() {
		m, err := scanMortgage(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan mortgage: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate mortgages: %w", err)
	}
	rows.Close()

	for _, m := range out {
		records, err := s.loadRecords(ctx, exec, m.ID)
		if err != nil {
			return nil, err
		}
		m.Payments = records
	}
	return out, nil
}

// ListDueIDs uses the (status, due_date) index on payment_records.
func (s *PostgresStore) ListDueIDs(ctx context.Context, q models.DueQuery) ([]id.MortgageID, error) {
	query := `
		SELECT DISTINCT m.id
		FROM mortgages m
		JOIN payment_records p ON p.mortgage_id = m.id
		WHERE m.status = 'active'
		  AND p.due_date < $1`
	if q.PendingOnly {
		query += ` AND p.status = 'pending'`
	} else {
		query += ` AND p.status IN ('pending', 'late')`
	}
	if q.AutoPayOnly {
		query += ` AND m.auto_pay`
	}
	query += ` ORDER BY m.id`

	rows, err := s.execer(ctx).QueryContext(ctx, query, q.Before)
	if err != nil {
		return nil, fmt.Errorf("list due mortgages: %w", err)
	}
	defer rows.Close()
	out := make([]id.MortgageID, 0)
	for rows.Next() {
		var raw uuid.UUID
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan mortgage id: %w", err)
		}
		out = append(out, id.MortgageID(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due mortgages: %w", err)
	}
	return out, nil
}

// Execute locks the mortgage row, runs validate and mutate, and writes back the
// header and every payment record whose state changed. It joins the transaction
// on ctx or opens its own.
func (s *PostgresStore) Execute(ctx context.Context, mortgageID id.MortgageID, validate func(*models.Mortgage) error, mutate func(*models.Mortgage)) (*models.Mortgage, error) {
	if tx, ok := txcontext.From(ctx); ok {
		return s.execute(ctx, tx, mortgageID, validate, mutate)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	m, err := s.execute(ctx, tx, mortgageID, validate, mutate)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) execute(ctx context.Context, tx *sql.Tx, mortgageID id.MortgageID, validate func(*models.Mortgage) error, mutate func(*models.Mortgage)) (*models.Mortgage, error) {
	before, err := s.find(ctx, tx, `id = $1`, uuid.UUID(mortgageID), true)
	if err != nil {
		return nil, err
	}
	m := before.Clone()
	if err := validate(m); err != nil {
		return nil, err
	}
	mutate(m)

	const headerQuery = `
		UPDATE mortgages SET
			payments_made = $3, remaining_balance = $4, total_paid = $5, status = $6,
			auto_pay = $7, auto_pay_enabled_at = $8, auto_pay_disabled_at = $9,
			cancel_reason = $10, closed_at = $11, updated_at = $12, version = version + 1
		WHERE id = $1 AND version = $2
	`
	res, err := tx.ExecContext(ctx, headerQuery,
		uuid.UUID(m.ID), before.Version,
		m.PaymentsMade, m.RemainingBalance, m.TotalPaid, string(m.Status),
		m.AutoPay, m.AutoPayEnabledAt, m.AutoPayDisabledAt,
		m.CancelReason, m.ClosedAt, m.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update mortgage: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, sentinel.ErrVersionConflict
	}
	m.Version = before.Version + 1

	const recordQuery = `
		UPDATE payment_records SET status = $3, paid_at = $4, method = $5, transaction_id = $6, notes = $7,
			amount_paid = $8, principal = $9, interest = $10
		WHERE mortgage_id = $1 AND payment_number = $2 AND status <> 'paid'
	`
	for i := range m.Payments {
		rec, prev := m.Payments[i], before.Payments[i]
		if rec.Status == prev.Status {
			continue
		}
		_, err := tx.ExecContext(ctx, recordQuery,
			uuid.UUID(m.ID), rec.PaymentNumber, string(rec.Status), rec.PaidAt,
			nullString(string(rec.Method)), nullString(rec.TransactionID), nullString(rec.Notes),
			paidAmount(rec), rec.Principal, rec.Interest,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return nil, sentinel.ErrAlreadyUsed
			}
			return nil, fmt.Errorf("update payment record %d: %w", rec.PaymentNumber, err)
		}
	}
	return m, nil
}

func paidAmount(rec models.PaymentRecord) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: rec.AmountPaid, Valid: rec.Status == models.PaymentPaid}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullableUUID(u uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: u, Valid: u != uuid.Nil}
}
