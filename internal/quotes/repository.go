package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/taller-erp/taller-erp/internal/platform/db"
	"github.com/taller-erp/taller-erp/internal/shared"
)

// Repository provides quote persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	Details(ctx context.Context, quoteID int64) ([]QuoteDetail, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	Create(ctx context.Context, quote Quote) (int64, error)
	UpdateStatus(ctx context.Context, quote *Quote) error
	UpdateValidity(ctx context.Context, quote *Quote) error
	GenerateNumber(ctx context.Context) (string, error)
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

const quoteColumns = `id, quote_number, customer_id, repair_order_id, created_by,
       labor_cost::text, parts_cost::text, additional_cost::text,
       subtotal::text, discount::text, tax_rate::text, taxes::text, total::text,
       validity_days, expiry_date, status, response_date, notes,
       version, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM quotes WHERE id = $1`, quoteColumns), id)
	quote, err := scanQuote(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return quote, nil
}

func (r *repository) Details(ctx context.Context, quoteID int64) ([]QuoteDetail, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, quote_id, type, description,
		       quantity::text, unit_price::text, total_price::text
		FROM quote_details
		WHERE quote_id = $1
		ORDER BY id ASC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("load quote details: %w", err)
	}
	defer rows.Close()

	var details []QuoteDetail
	for rows.Next() {
		var d QuoteDetail
		var quantity, unitPrice, totalPrice string
		if err := rows.Scan(&d.ID, &d.QuoteID, &d.Type, &d.Description, &quantity, &unitPrice, &totalPrice); err != nil {
			return nil, err
		}
		if d.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if d.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit_price: %w", err)
		}
		if d.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, fmt.Errorf("parse total_price: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(*req.Status))
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM quotes WHERE %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count quotes: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM quotes WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, *quote)
	}
	return quotes, total, rows.Err()
}

// Create inserts the quote and its detail lines in one statement sequence.
// Callers wrap it in WithTx so a detail failure rolls back the header.
func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO quotes (
			quote_number, customer_id, repair_order_id, created_by,
			labor_cost, parts_cost, additional_cost,
			subtotal, discount, tax_rate, taxes, total,
			validity_days, expiry_date, status, notes,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, NOW(), NOW())
		RETURNING id`,
		q.QuoteNumber, q.CustomerID, q.RepairOrderID, q.CreatedBy,
		q.LaborCost.String(), q.PartsCost.String(), q.AdditionalCost.String(),
		q.Subtotal.String(), q.Discount.String(), q.TaxRate.String(), q.Taxes.String(), q.Total.String(),
		q.ValidityDays, q.ExpiryDate, string(q.Status), q.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert quote: %w", err)
	}

	for _, d := range q.Details {
		_, err := r.db.Exec(ctx, `
			INSERT INTO quote_details (quote_id, type, description, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, string(d.Type), d.Description,
			d.Quantity.String(), d.UnitPrice.String(), d.TotalPrice.String())
		if err != nil {
			return 0, fmt.Errorf("insert quote detail: %w", err)
		}
	}
	return id, nil
}

// UpdateStatus persists a lifecycle change under the optimistic version check.
func (r *repository) UpdateStatus(ctx context.Context, q *Quote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET status = $1, response_date = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4`,
		string(q.Status), q.ResponseDate, q.ID, q.Version)
	if err != nil {
		return fmt.Errorf("update quote status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrVersionConflict
	}
	q.Version++
	return nil
}

func (r *repository) UpdateValidity(ctx context.Context, q *Quote) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE quotes
		SET validity_days = $1, expiry_date = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4`,
		q.ValidityDays, q.ExpiryDate, q.ID, q.Version)
	if err != nil {
		return fmt.Errorf("update quote validity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrVersionConflict
	}
	q.Version++
	return nil
}

// GenerateNumber produces the next sequential quote number, e.g. COT-2025-00042.
func (r *repository) GenerateNumber(ctx context.Context) (string, error) {
	var number string
	err := r.db.QueryRow(ctx,
		`SELECT 'COT-' || TO_CHAR(NOW(), 'YYYY') || '-' || LPAD(nextval('quote_number_seq')::text, 5, '0')`,
	).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("generate quote number: %w", err)
	}
	return number, nil
}

func scanQuote(row pgx.Row) (*Quote, error) {
	var q Quote
	var repairOrderID pgtype.Int8
	var labor, parts, additional, subtotal, discount, taxRate, taxes, total string
	var responseDate pgtype.Timestamptz
	var notes pgtype.Text

	err := row.Scan(
		&q.ID, &q.QuoteNumber, &q.CustomerID, &repairOrderID, &q.CreatedBy,
		&labor, &parts, &additional,
		&subtotal, &discount, &taxRate, &taxes, &total,
		&q.ValidityDays, &q.ExpiryDate, &q.Status, &responseDate, &notes,
		&q.Version, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if repairOrderID.Valid {
		q.RepairOrderID = &repairOrderID.Int64
	}
	if responseDate.Valid {
		q.ResponseDate = &responseDate.Time
	}
	if notes.Valid {
		q.Notes = &notes.String
	}

	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&q.LaborCost, labor}, {&q.PartsCost, parts}, {&q.AdditionalCost, additional},
		{&q.Subtotal, subtotal}, {&q.Discount, discount}, {&q.TaxRate, taxRate},
		{&q.Taxes, taxes}, {&q.Total, total},
	} {
		d, err := decimal.NewFromString(field.src)
		if err != nil {
			return nil, fmt.Errorf("parse quote amount: %w", err)
		}
		*field.dst = d
	}
	return &q, nil
}
