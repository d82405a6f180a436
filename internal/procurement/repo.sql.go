package procurement

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	NextPOSequence(ctx context.Context, vendorID int64, yearMonth string) (int64, error)
	CreatePO(ctx context.Context, po PurchaseOrder) (int64, error)
	UpdatePOStatus(ctx context.Context, id int64, status OrderStatus) error
	GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error)
	GetLineForUpdate(ctx context.Context, id int64) (PartLine, error)
	ListOrderLines(ctx context.Context, poID int64) ([]PartLine, error)
	CreatePartLine(ctx context.Context, line PartLine) (int64, error)
	AssignLine(ctx context.Context, lineID, vendorID, poID int64, status LineStatus) error
	MoveLine(ctx context.Context, lineID, poID int64) error
	UpdateLineReceipt(ctx context.Context, lineID int64, status LineStatus, receivedQty float64, condition Condition) error
	UpdateLineStatus(ctx context.Context, lineID int64, status LineStatus) error
	CreateReturnOrder(ctx context.Context, ro ReturnOrder) (int64, bool, error)
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const poColumns = `id, shop_id, number, ro_number, vendor_id, status, COALESCE(parent_order_id,0), subtotal, tax, total, estimated_margin, COALESCE(expected_at, CURRENT_DATE), note, created_at, updated_at`

const lineColumns = `id, shop_id, ro_number, estimate_line_ref, part_number, COALESCE(oem_number,''), description, quantity, unit_price, COALESCE(vendor_id,0), COALESCE(purchase_order_id,0), status, received_quantity, COALESCE(condition,''), created_at, updated_at`

func scanPO(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.ShopID, &po.Number, &po.RONumber, &po.VendorID, &po.Status, &po.ParentOrderID,
		&po.Subtotal, &po.Tax, &po.Total, &po.EstimatedMargin, &po.ExpectedAt, &po.Note, &po.CreatedAt, &po.UpdatedAt)
	return po, err
}

func scanLine(row pgx.Row) (PartLine, error) {
	var line PartLine
	err := row.Scan(&line.ID, &line.ShopID, &line.RONumber, &line.EstimateLineRef, &line.PartNumber, &line.OEMNumber,
		&line.Description, &line.Quantity, &line.UnitPrice, &line.VendorID, &line.PurchaseOrderID,
		&line.Status, &line.ReceivedQuantity, &line.Condition, &line.CreatedAt, &line.UpdatedAt)
	return line, err
}

// GetPO returns a purchase order and its lines.
func (r *Repository) GetPO(ctx context.Context, id int64) (PurchaseOrder, []PartLine, error) {
	po, err := scanPO(r.pool.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, nil, ErrNotFound
		}
		return PurchaseOrder{}, nil, err
	}
	lines, err := queryLines(ctx, r.pool, `SELECT `+lineColumns+` FROM part_lines WHERE purchase_order_id=$1 ORDER BY id`, id)
	if err != nil {
		return PurchaseOrder{}, nil, err
	}
	return po, lines, nil
}

// ListOrdersByRO returns every order for a repair order, children included.
func (r *Repository) ListOrdersByRO(ctx context.Context, shopID int64, roNumber string) ([]PurchaseOrder, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE shop_id=$1 AND ro_number=$2 ORDER BY id`, shopID, roNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, po)
	}
	return orders, rows.Err()
}

// GetLine fetches one part line.
func (r *Repository) GetLine(ctx context.Context, id int64) (PartLine, error) {
	line, err := scanLine(r.pool.QueryRow(ctx, `SELECT `+lineColumns+` FROM part_lines WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartLine{}, ErrNotFound
		}
		return PartLine{}, err
	}
	return line, nil
}

// ListUnassignedLines returns lines waiting for manual vendor assignment.
func (r *Repository) ListUnassignedLines(ctx context.Context, shopID int64, roNumber string) ([]PartLine, error) {
	return queryLines(ctx, r.pool,
		`SELECT `+lineColumns+` FROM part_lines WHERE shop_id=$1 AND ro_number=$2 AND COALESCE(vendor_id,0)=0 ORDER BY id`,
		shopID, roNumber)
}

// ListReturnsForOrder returns return orders filed against a PO.
func (r *Repository) ListReturnsForOrder(ctx context.Context, poID int64) ([]ReturnOrder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, shop_id, ref_id, purchase_order_id, part_line_id, vendor_id, reason, quantity, status, created_at
		 FROM return_orders WHERE purchase_order_id=$1 ORDER BY id`, poID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var returns []ReturnOrder
	for rows.Next() {
		var ro ReturnOrder
		if err := rows.Scan(&ro.ID, &ro.ShopID, &ro.RefID, &ro.PurchaseOrderID, &ro.PartLineID, &ro.VendorID, &ro.Reason, &ro.Quantity, &ro.Status, &ro.CreatedAt); err != nil {
			return nil, err
		}
		returns = append(returns, ro)
	}
	return returns, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryLines(ctx context.Context, q querier, sql string, args ...any) ([]PartLine, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []PartLine
	for rows.Next() {
		line, err := scanLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// NextPOSequence allocates the next per-vendor per-month sequence in a
// single upsert, so concurrent order creation can never observe the same
// value.
func (tx *txRepo) NextPOSequence(ctx context.Context, vendorID int64, yearMonth string) (int64, error) {
	var seq int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO po_sequences (vendor_id, year_month, seq) VALUES ($1,$2,1)
		 ON CONFLICT (vendor_id, year_month) DO UPDATE SET seq = po_sequences.seq + 1
		 RETURNING seq`, vendorID, yearMonth).Scan(&seq)
	return seq, err
}

// CreatePO inserts the order inside a savepoint so that a unique
// violation on the number leaves the enclosing transaction usable and
// the caller can retry with a fresh allocation.
func (tx *txRepo) CreatePO(ctx context.Context, po PurchaseOrder) (int64, error) {
	sp, err := tx.tx.Begin(ctx)
	if err != nil {
		return 0, err
	}
	var id int64
	err = sp.QueryRow(ctx,
		`INSERT INTO purchase_orders (shop_id, number, ro_number, vendor_id, status, parent_order_id, subtotal, tax, total, estimated_margin, expected_at, note, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NOW(),NOW()) RETURNING id`,
		po.ShopID, po.Number, po.RONumber, po.VendorID, po.Status, nullInt(po.ParentOrderID),
		po.Subtotal, po.Tax, po.Total, po.EstimatedMargin, nullDate(po.ExpectedAt), po.Note).Scan(&id)
	if err != nil {
		_ = sp.Rollback(ctx)
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, err
	}
	return id, sp.Commit(ctx)
}

func (tx *txRepo) UpdatePOStatus(ctx context.Context, id int64, status OrderStatus) error {
	_, err := tx.tx.Exec(ctx, `UPDATE purchase_orders SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	return err
}

// GetPOForUpdate locks the order row for the rest of the transaction.
func (tx *txRepo) GetPOForUpdate(ctx context.Context, id int64) (PurchaseOrder, error) {
	po, err := scanPO(tx.tx.QueryRow(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

// GetLineForUpdate locks the line row for the rest of the transaction.
func (tx *txRepo) GetLineForUpdate(ctx context.Context, id int64) (PartLine, error) {
	line, err := scanLine(tx.tx.QueryRow(ctx, `SELECT `+lineColumns+` FROM part_lines WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PartLine{}, ErrNotFound
		}
		return PartLine{}, err
	}
	return line, nil
}

func (tx *txRepo) ListOrderLines(ctx context.Context, poID int64) ([]PartLine, error) {
	return queryLines(ctx, tx.tx, `SELECT `+lineColumns+` FROM part_lines WHERE purchase_order_id=$1 ORDER BY id`, poID)
}

func (tx *txRepo) CreatePartLine(ctx context.Context, line PartLine) (int64, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO part_lines (shop_id, ro_number, estimate_line_ref, part_number, oem_number, description, quantity, unit_price, vendor_id, purchase_order_id, status, received_quantity, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0,NOW(),NOW()) RETURNING id`,
		line.ShopID, line.RONumber, line.EstimateLineRef, line.PartNumber, line.OEMNumber, line.Description,
		line.Quantity, line.UnitPrice, nullInt(line.VendorID), nullInt(line.PurchaseOrderID), line.Status).Scan(&id)
	return id, err
}

func (tx *txRepo) AssignLine(ctx context.Context, lineID, vendorID, poID int64, status LineStatus) error {
	_, err := tx.tx.Exec(ctx,
		`UPDATE part_lines SET vendor_id=$1, purchase_order_id=$2, status=$3, updated_at=NOW() WHERE id=$4`,
		nullInt(vendorID), nullInt(poID), status, lineID)
	return err
}

func (tx *txRepo) MoveLine(ctx context.Context, lineID, poID int64) error {
	_, err := tx.tx.Exec(ctx, `UPDATE part_lines SET purchase_order_id=$1, updated_at=NOW() WHERE id=$2`, poID, lineID)
	return err
}

func (tx *txRepo) UpdateLineReceipt(ctx context.Context, lineID int64, status LineStatus, receivedQty float64, condition Condition) error {
	_, err := tx.tx.Exec(ctx,
		`UPDATE part_lines SET status=$1, received_quantity=$2, condition=$3, updated_at=NOW() WHERE id=$4`,
		status, receivedQty, condition, lineID)
	return err
}

func (tx *txRepo) UpdateLineStatus(ctx context.Context, lineID int64, status LineStatus) error {
	_, err := tx.tx.Exec(ctx, `UPDATE part_lines SET status=$1, updated_at=NOW() WHERE id=$2`, status, lineID)
	return err
}

// CreateReturnOrder inserts a return keyed by its deterministic ref. The
// bool result reports whether a new row was written; a replay returns the
// existing row untouched.
func (tx *txRepo) CreateReturnOrder(ctx context.Context, ro ReturnOrder) (int64, bool, error) {
	var id int64
	err := tx.tx.QueryRow(ctx,
		`INSERT INTO return_orders (shop_id, ref_id, purchase_order_id, part_line_id, vendor_id, reason, quantity, status, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())
		 ON CONFLICT (ref_id) DO NOTHING RETURNING id`,
		ro.ShopID, ro.RefID, ro.PurchaseOrderID, ro.PartLineID, ro.VendorID, ro.Reason, ro.Quantity, ro.Status).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.tx.QueryRow(ctx, `SELECT id FROM return_orders WHERE ref_id=$1`, ro.RefID).Scan(&id)
		return id, false, err
	}
	return id, err == nil, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullInt(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
