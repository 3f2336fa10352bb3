package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taller-erp/taller-erp/internal/platform/db"
)

var (
	ErrNotFound      = errors.New("customer not found")
	ErrAlreadyExists = errors.New("customer already exists")
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Customer, error)
	GetByToken(ctx context.Context, token string) (*Customer, error)
	GetByDocument(ctx context.Context, docType, docNumber string) (*Customer, error)
	ExistsByToken(ctx context.Context, token string) (bool, error)
	List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error)
	Create(ctx context.Context, customer Customer) (int64, error)
	Update(ctx context.Context, id int64, updates map[string]interface{}) error
	UpdateToken(ctx context.Context, id int64, token string) error
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		repoTx := &repository{db: tx, pool: r.pool}
		return fn(ctx, repoTx)
	})
}

const customerColumns = `id, first_name, last_name, document_type, document_number,
       email, phone, address, is_active, qr_code, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Customer, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM customers WHERE id = $1`, customerColumns), id)
	return scanCustomer(row)
}

func (r *repository) GetByToken(ctx context.Context, token string) (*Customer, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM customers WHERE qr_code = $1`, customerColumns), token)
	return scanCustomer(row)
}

func (r *repository) GetByDocument(ctx context.Context, docType, docNumber string) (*Customer, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM customers WHERE document_type = $1 AND document_number = $2`, customerColumns),
		docType, docNumber)
	return scanCustomer(row)
}

// ExistsByToken runs against the authoritative store so two concurrent
// customer creations cannot mint the same token from a stale cache.
func (r *repository) ExistsByToken(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE qr_code = $1)`, token).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) List(ctx context.Context, req ListCustomersRequest) ([]Customer, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argPos))
		args = append(args, *req.IsActive)
		argPos++
	}

	if req.Search != nil && *req.Search != "" {
		searchPattern := "%" + *req.Search + "%"
		conditions = append(conditions, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR document_number ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, searchPattern)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM customers %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM customers
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d
	`, customerColumns, whereClause, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomerRow(rows)
		if err != nil {
			return nil, 0, err
		}
		customers = append(customers, *c)
	}
	return customers, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, document_type, document_number,
		                       email, phone, address, is_active, qr_code, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, c.FirstName, c.LastName, c.DocumentType, c.DocumentNumber,
		c.Email, c.Phone, c.Address, c.IsActive, c.QRCode, c.CreatedBy).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, id int64, updates map[string]interface{}) error {
	query := "UPDATE customers SET updated_at = NOW()"
	var args []interface{}
	argPos := 1

	for _, col := range []string{"first_name", "last_name", "email", "phone", "address", "is_active"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) UpdateToken(ctx context.Context, id int64, token string) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET qr_code = $1, updated_at = NOW() WHERE id = $2`, token, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*Customer, error) {
	c, err := scanCustomerRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func scanCustomerRow(row pgx.Row) (*Customer, error) {
	var c Customer
	var email, phone, address pgtype.Text
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&c.ID, &c.FirstName, &c.LastName, &c.DocumentType, &c.DocumentNumber,
		&email, &phone, &address, &c.IsActive, &c.QRCode, &c.CreatedBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if email.Valid {
		c.Email = &email.String
	}
	if phone.Valid {
		c.Phone = &phone.String
	}
	if address.Valid {
		c.Address = &address.String
	}
	if createdAt.Valid {
		c.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		c.UpdatedAt = updatedAt.Time
	}
	return &c, nil
}
