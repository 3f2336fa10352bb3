package repairorders

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

// Repository provides repair order persistence.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*RepairOrder, error)
	List(ctx context.Context, req ListOrdersRequest) ([]RepairOrder, int, error)
	Create(ctx context.Context, order RepairOrder) (int64, error)
	UpdateCosts(ctx context.Context, order *RepairOrder) error
	ApplyTransition(ctx context.Context, order *RepairOrder) error
	AppendHistory(ctx context.Context, record HistoryRecord) error
	History(ctx context.Context, orderID int64) ([]HistoryRecord, error)
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

// Money columns are selected as text so they round-trip through fixed-point
// decimals without passing through binary floats.
const orderColumns = `id, order_number, customer_id, technician_id, received_by,
       device_type, device_brand, device_model, device_serial, problem_description,
       status, priority,
       diagnosis_cost::text, repair_cost::text, total_cost::text,
       advance_payment::text, pending_balance::text,
       promised_date, diagnosis_date, repair_date, delivery_date,
       version, created_at, updated_at`

func (r *repository) Get(ctx context.Context, id int64) (*RepairOrder, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM repair_orders WHERE id = $1`, orderColumns), id)
	return scanOrder(row)
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]RepairOrder, int, error) {
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
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM repair_orders WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count repair orders: %w", err)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM repair_orders WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list repair orders: %w", err)
	}
	defer rows.Close()

	var orders []RepairOrder
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	return orders, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, o RepairOrder) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO repair_orders (
			order_number, customer_id, technician_id, received_by,
			device_type, device_brand, device_model, device_serial, problem_description,
			status, priority,
			diagnosis_cost, repair_cost, total_cost, advance_payment, pending_balance,
			promised_date, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, 1, NOW(), NOW())
		RETURNING id`,
		o.OrderNumber, o.CustomerID, o.TechnicianID, o.ReceivedBy,
		o.DeviceType, o.DeviceBrand, o.DeviceModel, o.DeviceSerial, o.ProblemDescription,
		string(o.Status), string(o.Priority),
		o.DiagnosisCost.String(), o.RepairCost.String(), o.TotalCost.String(),
		o.AdvancePayment.String(), o.PendingBalance.String(),
		o.PromisedDate,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert repair order: %w", err)
	}
	return id, nil
}

// UpdateCosts writes the monetary fields under the optimistic version check.
func (r *repository) UpdateCosts(ctx context.Context, o *RepairOrder) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE repair_orders
		SET diagnosis_cost = $1, repair_cost = $2, total_cost = $3,
		    advance_payment = $4, pending_balance = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $6 AND version = $7`,
		o.DiagnosisCost.String(), o.RepairCost.String(), o.TotalCost.String(),
		o.AdvancePayment.String(), o.PendingBalance.String(),
		o.ID, o.Version)
	if err != nil {
		return fmt.Errorf("update repair order costs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrVersionConflict
	}
	o.Version++
	return nil
}

// ApplyTransition persists a status change together with its milestone
// timestamps and recomputed balance. The version predicate makes two
// concurrent transitions on the same order impossible to interleave: the
// loser sees zero rows affected.
func (r *repository) ApplyTransition(ctx context.Context, o *RepairOrder) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE repair_orders
		SET status = $1, pending_balance = $2,
		    diagnosis_date = $3, repair_date = $4, delivery_date = $5,
		    version = version + 1, updated_at = NOW()
		WHERE id = $6 AND version = $7`,
		string(o.Status), o.PendingBalance.String(),
		o.DiagnosisDate, o.RepairDate, o.DeliveryDate,
		o.ID, o.Version)
	if err != nil {
		return fmt.Errorf("apply repair order transition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrVersionConflict
	}
	o.Version++
	return nil
}

func (r *repository) AppendHistory(ctx context.Context, h HistoryRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO repair_order_history (order_id, from_status, to_status, actor_id, note, override, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		h.OrderID, string(h.FromStatus), string(h.ToStatus), h.ActorID, h.Note, h.Override)
	if err != nil {
		return fmt.Errorf("append repair order history: %w", err)
	}
	return nil
}

func (r *repository) History(ctx context.Context, orderID int64) ([]HistoryRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, from_status, to_status, actor_id, note, override, created_at
		FROM repair_order_history
		WHERE order_id = $1
		ORDER BY created_at ASC, id ASC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load repair order history: %w", err)
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		var h HistoryRecord
		var note pgtype.Text
		if err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.ActorID, &note, &h.Override, &h.CreatedAt); err != nil {
			return nil, err
		}
		if note.Valid {
			h.Note = &note.String
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

// GenerateNumber produces the next sequential order number, e.g. RO-2025-00042.
func (r *repository) GenerateNumber(ctx context.Context) (string, error) {
	var number string
	err := r.db.QueryRow(ctx,
		`SELECT 'RO-' || TO_CHAR(NOW(), 'YYYY') || '-' || LPAD(nextval('repair_order_number_seq')::text, 5, '0')`,
	).Scan(&number)
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return number, nil
}

func scanOrder(row pgx.Row) (*RepairOrder, error) {
	order, err := scanOrderRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func scanOrderRow(row pgx.Row) (*RepairOrder, error) {
	var o RepairOrder
	var technicianID pgtype.Int8
	var deviceSerial pgtype.Text
	var diagnosisCost, repairCost, totalCost, advancePayment, pendingBalance string
	var promised, diagnosed, repaired, delivered pgtype.Timestamptz

	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.CustomerID, &technicianID, &o.ReceivedBy,
		&o.DeviceType, &o.DeviceBrand, &o.DeviceModel, &deviceSerial, &o.ProblemDescription,
		&o.Status, &o.Priority,
		&diagnosisCost, &repairCost, &totalCost, &advancePayment, &pendingBalance,
		&promised, &diagnosed, &repaired, &delivered,
		&o.Version, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if technicianID.Valid {
		o.TechnicianID = &technicianID.Int64
	}
	if deviceSerial.Valid {
		o.DeviceSerial = &deviceSerial.String
	}
	if promised.Valid {
		o.PromisedDate = &promised.Time
	}
	if diagnosed.Valid {
		o.DiagnosisDate = &diagnosed.Time
	}
	if repaired.Valid {
		o.RepairDate = &repaired.Time
	}
	if delivered.Valid {
		o.DeliveryDate = &delivered.Time
	}

	if o.DiagnosisCost, err = decimal.NewFromString(diagnosisCost); err != nil {
		return nil, fmt.Errorf("parse diagnosis_cost: %w", err)
	}
	if o.RepairCost, err = decimal.NewFromString(repairCost); err != nil {
		return nil, fmt.Errorf("parse repair_cost: %w", err)
	}
	if o.TotalCost, err = decimal.NewFromString(totalCost); err != nil {
		return nil, fmt.Errorf("parse total_cost: %w", err)
	}
	if o.AdvancePayment, err = decimal.NewFromString(advancePayment); err != nil {
		return nil, fmt.Errorf("parse advance_payment: %w", err)
	}
	if o.PendingBalance, err = decimal.NewFromString(pendingBalance); err != nil {
		return nil, fmt.Errorf("parse pending_balance: %w", err)
	}
	return &o, nil
}
