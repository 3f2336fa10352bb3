package sales

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

// ErrNotFound indicates the requested sale was not found.
var ErrNotFound = errors.New("sale not found")

// Repository provides sale persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Sale, error)
	Items(ctx context.Context, saleID int64) ([]SaleItem, error)
	List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error)
	Create(ctx context.Context, sale Sale) (int64, error)
	UpdatePayment(ctx context.Context, sale *Sale) error
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

const saleColumns = `id, sale_number, customer_id, quote_id, repair_order_id, created_by,
       subtotal::text, discount::text, tax_rate::text, taxes::text, total::text,
       advance_payment::text, pending_balance::text,
       notes, version, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*Sale, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM sales WHERE id = $1`, saleColumns), id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (r *repository) Items(ctx context.Context, saleID int64) ([]SaleItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, sale_id, description, quantity::text, unit_price::text, total_price::text
		FROM sale_items
		WHERE sale_id = $1
		ORDER BY id ASC`, saleID)
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var item SaleItem
		var quantity, unitPrice, totalPrice string
		if err := rows.Scan(&item.ID, &item.SaleID, &item.Description, &quantity, &unitPrice, &totalPrice); err != nil {
			return nil, err
		}
		if item.Quantity, err = decimal.NewFromString(quantity); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}
		if item.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("parse unit_price: %w", err)
		}
		if item.TotalPrice, err = decimal.NewFromString(totalPrice); err != nil {
			return nil, fmt.Errorf("parse total_price: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListSalesRequest) ([]Sale, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM sales WHERE %s`, where), args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM sales WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		saleColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	var sales []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, *sale)
	}
	return sales, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, s Sale) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO sales (
			sale_number, customer_id, quote_id, repair_order_id, created_by,
			subtotal, discount, tax_rate, taxes, total,
			advance_payment, pending_balance, notes,
			version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, NOW(), NOW())
		RETURNING id`,
		s.SaleNumber, s.CustomerID, s.QuoteID, s.RepairOrderID, s.CreatedBy,
		s.Subtotal.String(), s.Discount.String(), s.TaxRate.String(), s.Taxes.String(), s.Total.String(),
		s.AdvancePayment.String(), s.PendingBalance.String(), s.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert sale: %w", err)
	}

	for _, item := range s.Items {
		_, err := r.db.Exec(ctx, `
			INSERT INTO sale_items (sale_id, description, quantity, unit_price, total_price)
			VALUES ($1, $2, $3, $4, $5)`,
			id, item.Description, item.Quantity.String(), item.UnitPrice.String(), item.TotalPrice.String())
		if err != nil {
			return 0, fmt.Errorf("insert sale item: %w", err)
		}
	}
	return id, nil
}

func (r *repository) UpdatePayment(ctx context.Context, s *Sale) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE sales
		SET advance_payment = $1, pending_balance = $2, version = version + 1, updated_at = NOW()
		WHERE id = $3 AND version = $4`,
		s.AdvancePayment.String(), s.PendingBalance.String(), s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("update sale payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrVersionConflict
	}
	s.Version++
	return nil
}

// GenerateNumber produces the next sequential sale number, e.g. V-2025-00042.
func (r *repository) GenerateNumber(ctx context.Context) (string, error) {
	var number string
	err := r.db.QueryRow(ctx,
		`SELECT 'V-' || TO_CHAR(NOW(), 'YYYY') || '-' || LPAD(nextval('sale_number_seq')::text, 5, '0')`,
	).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("generate sale number: %w", err)
	}
	return number, nil
}

func scanSale(row pgx.Row) (*Sale, error) {
	var s Sale
	var quoteID, repairOrderID pgtype.Int8
	var subtotal, discount, taxRate, taxes, total, advancePayment, pendingBalance string
	var notes pgtype.Text

	err := row.Scan(
		&s.ID, &s.SaleNumber, &s.CustomerID, &quoteID, &repairOrderID, &s.CreatedBy,
		&subtotal, &discount, &taxRate, &taxes, &total,
		&advancePayment, &pendingBalance,
		&notes, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if quoteID.Valid {
		s.QuoteID = &quoteID.Int64
	}
	if repairOrderID.Valid {
		s.RepairOrderID = &repairOrderID.Int64
	}
	if notes.Valid {
		s.Notes = &notes.String
	}

	for _, field := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&s.Subtotal, subtotal}, {&s.Discount, discount}, {&s.TaxRate, taxRate},
		{&s.Taxes, taxes}, {&s.Total, total},
		{&s.AdvancePayment, advancePayment}, {&s.PendingBalance, pendingBalance},
	} {
		d, err := decimal.NewFromString(field.src)
		if err != nil {
			return nil, fmt.Errorf("parse sale amount: %w", err)
		}
		*field.dst = d
	}
	return &s, nil
}
