package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neomorfeo/fabflow/internal/domain"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // Register SQLite driver.
)

//go:embed migrations/*.sql
var migrations embed.FS

// Compile-time check: OrderRepository implements domain.OrderRepository.
var _ domain.OrderRepository = (*OrderRepository)(nil)

// OrderRepository implements domain.OrderRepository using SQLite.
type OrderRepository struct {
	db *sql.DB
}

// New opens a SQLite database, runs migrations, and returns a ready repository.
func New(dataSourceName string) (*OrderRepository, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite has a single writer; one connection also keeps ":memory:"
	// databases from splitting across the pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	return NewFromDB(db)
}

// NewFromDB wraps an existing database connection, runs migrations, and returns a ready repository.
// Use this when the *sql.DB has been pre-configured (e.g., with otelsql instrumentation).
func NewFromDB(db *sql.DB) (*OrderRepository, error) {
	if err := runMigrations(db); err != nil {
		return nil, err
	}

	return &OrderRepository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *OrderRepository) Close() error {
	return r.db.Close()
}

// DB returns the underlying database connection for the sibling stores and river.
func (r *OrderRepository) DB() *sql.DB {
	return r.db
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// Fixed width so that lexical order matches chronological order.
const timeFormat = "2006-01-02T15:04:05.000000Z"

// numberAttempts bounds retries when another writer takes the same number.
const numberAttempts = 3

const orderColumns = `o.id, o.number, o.status, o.creator_id, o.platform_code, o.mask_name,
	o.paid, o.contract_ready, o.has_contract, o.has_invoice, o.has_gds,
	o.version, o.created_at, o.updated_at, o.deleted_at`

// Create inserts the order and assigns the next number of its creation day.
func (r *OrderRepository) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		var created domain.Order
		created, err = r.create(ctx, o)
		if err == nil {
			return created, nil
		}
		if !isUniqueViolation(err) {
			return domain.Order{}, err
		}
	}
	return domain.Order{}, fmt.Errorf("allocating order number: %w", err)
}

func (r *OrderRepository) create(ctx context.Context, o domain.Order) (domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	prefix := domain.OrderNumberPrefix(o.CreatedAt)
	var last sql.NullString
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(number) FROM orders WHERE number LIKE ?`, prefix+"%",
	).Scan(&last); err != nil {
		return domain.Order{}, fmt.Errorf("reading last order number: %w", err)
	}

	seq := 1
	if last.Valid {
		_, n, err := domain.ParseOrderNumber(last.String)
		if err != nil {
			return domain.Order{}, fmt.Errorf("parsing stored order number: %w", err)
		}
		seq = n + 1
	}

	number, err := domain.FormatOrderNumber(o.CreatedAt, seq)
	if err != nil {
		return domain.Order{}, err
	}

	if o.Version == 0 {
		o.Version = 1
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (number, status, creator_id, platform_code, mask_name,
			paid, contract_ready, has_contract, has_invoice, has_gds,
			version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		number, string(o.Status), o.CreatorID, o.PlatformCode, o.MaskName,
		o.Paid, o.ContractReady, o.Attachments.Contract, o.Attachments.Invoice, o.Attachments.GDS,
		o.Version, o.CreatedAt.Format(timeFormat), o.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("inserting order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return domain.Order{}, fmt.Errorf("reading order id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, fmt.Errorf("committing order: %w", err)
	}

	o.ID = id
	o.Number = number
	return o, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	return scanOrder(r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = ? AND o.deleted_at IS NULL`, id,
	))
}

func (r *OrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o`
	conds := []string{"o.deleted_at IS NULL"}
	var args []any

	if filter.CreatorCompany != "" || filter.OrCreatorCompany != "" {
		query += ` JOIN profiles p ON p.id = o.creator_id`
	}
	if filter.CreatorCompany != "" {
		conds = append(conds, "p.company_name = ?")
		args = append(args, filter.CreatorCompany)
	}
	if filter.Status != nil {
		conds = append(conds, "o.status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.CreatorID != 0 {
		conds = append(conds, "o.creator_id = ?")
		args = append(args, filter.CreatorID)
	}
	switch {
	case filter.PlatformCode != "" && filter.OrCreatorCompany != "":
		conds = append(conds, "(o.platform_code = ? OR p.company_name = ?)")
		args = append(args, filter.PlatformCode, filter.OrCreatorCompany)
	case filter.PlatformCode != "":
		conds = append(conds, "o.platform_code = ?")
		args = append(args, filter.PlatformCode)
	}

	query += ` WHERE ` + strings.Join(conds, " AND ")
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += ` LIMIT -1`
		}
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// Update writes the mutable columns if the stored version matches and
// returns the order with its bumped version. Number, creator and platform
// are never written.
func (r *OrderRepository) Update(ctx context.Context, o domain.Order) (domain.Order, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, mask_name = ?, paid = ?, contract_ready = ?,
			has_contract = ?, has_invoice = ?, has_gds = ?,
			version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ? AND deleted_at IS NULL`,
		string(o.Status), o.MaskName, o.Paid, o.ContractReady,
		o.Attachments.Contract, o.Attachments.Invoice, o.Attachments.GDS,
		o.UpdatedAt.Format(timeFormat), o.ID, o.Version,
	)
	if err != nil {
		return domain.Order{}, fmt.Errorf("updating order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return domain.Order{}, fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a lost race from a missing row.
		if _, err := r.GetByID(ctx, o.ID); err != nil {
			return domain.Order{}, err
		}
		return domain.Order{}, domain.ErrConcurrentUpdate
	}

	return r.GetByID(ctx, o.ID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (domain.Order, error) {
	var o domain.Order
	var status, createdAt, updatedAt string
	var deletedAt sql.NullString

	err := row.Scan(
		&o.ID, &o.Number, &status, &o.CreatorID, &o.PlatformCode, &o.MaskName,
		&o.Paid, &o.ContractReady, &o.Attachments.Contract, &o.Attachments.Invoice, &o.Attachments.GDS,
		&o.Version, &createdAt, &updatedAt, &deletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("scanning order: %w", err)
	}

	o.Status = domain.Status(status)
	o.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	o.UpdatedAt, _ = time.Parse(timeFormat, updatedAt)
	if deletedAt.Valid {
		t, _ := time.Parse(timeFormat, deletedAt.String)
		o.DeletedAt = &t
	}

	return o, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
