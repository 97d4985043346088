// Package store implements core.Store on PostgreSQL via pgx.
package store

import (
	"context"
	"errors"
	"fmt"

	"bookkeeper/internal/core"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ── Vendors ───────────────────────────────────────────────────────────────────

func (s *Postgres) CreateVendor(ctx context.Context, name string) (*core.Vendor, error) {
	v := &core.Vendor{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO vendors (name)
		VALUES ($1)
		RETURNING id, name, created_at`,
		name,
	).Scan(&v.ID, &v.Name, &v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, core.Validationf("vendor name %q already exists", name)
		}
		return nil, fmt.Errorf("create vendor %q: %w", name, err)
	}
	return v, nil
}

func (s *Postgres) GetVendor(ctx context.Context, id int64) (*core.Vendor, error) {
	v := &core.Vendor{}
	err := s.pool.QueryRow(ctx,
		"SELECT id, name, created_at FROM vendors WHERE id = $1", id,
	).Scan(&v.ID, &v.Name, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Resource: "vendor", ID: id}
		}
		return nil, fmt.Errorf("get vendor %d: %w", id, err)
	}
	return v, nil
}

func (s *Postgres) ListVendors(ctx context.Context) ([]core.Vendor, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT id, name, created_at FROM vendors ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []core.Vendor
	for rows.Next() {
		var v core.Vendor
		if err := rows.Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// ── Purchase orders ───────────────────────────────────────────────────────────

const poColumns = `id, vendor_id, description, total_amount, start_date, end_date,
       amount_per_month, frequency, is_active, advance_payment, created_at`

func scanPO(row pgx.Row) (*core.PurchaseOrder, error) {
	po := &core.PurchaseOrder{}
	err := row.Scan(
		&po.ID, &po.VendorID, &po.Description, &po.TotalAmount,
		&po.StartDate, &po.EndDate, &po.AmountPerMonth, &po.Frequency,
		&po.IsActive, &po.AdvancePayment, &po.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *Postgres) CreatePurchaseOrder(ctx context.Context, po *core.PurchaseOrder) (*core.PurchaseOrder, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO purchase_orders
		            (vendor_id, description, total_amount, start_date, end_date,
		             amount_per_month, frequency, is_active, advance_payment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+poColumns,
		po.VendorID, po.Description, po.TotalAmount, po.StartDate, po.EndDate,
		po.AmountPerMonth, po.Frequency, po.IsActive, po.AdvancePayment,
	)
	created, err := scanPO(row)
	if err != nil {
		return nil, fmt.Errorf("insert purchase order: %w", err)
	}
	return created, nil
}

func (s *Postgres) GetPurchaseOrder(ctx context.Context, id int64) (*core.PurchaseOrder, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+poColumns+" FROM purchase_orders WHERE id = $1", id)
	po, err := scanPO(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Resource: "purchase order", ID: id}
		}
		return nil, fmt.Errorf("get purchase order %d: %w", id, err)
	}
	return po, nil
}

func (s *Postgres) listPurchaseOrders(ctx context.Context, where string, args ...any) ([]core.PurchaseOrder, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+poColumns+" FROM purchase_orders "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var orders []core.PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		orders = append(orders, *po)
	}
	return orders, rows.Err()
}

func (s *Postgres) ListActivePurchaseOrders(ctx context.Context) ([]core.PurchaseOrder, error) {
	return s.listPurchaseOrders(ctx, "WHERE is_active = true")
}

func (s *Postgres) ListPurchaseOrdersByVendor(ctx context.Context, vendorID int64) ([]core.PurchaseOrder, error) {
	return s.listPurchaseOrders(ctx, "WHERE vendor_id = $1", vendorID)
}

func (s *Postgres) SetPurchaseOrderActive(ctx context.Context, id int64, active bool) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE purchase_orders SET is_active = $1 WHERE id = $2", active, id)
	if err != nil {
		return fmt.Errorf("update purchase order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Resource: "purchase order", ID: id}
	}
	return nil
}

// ── Invoices ──────────────────────────────────────────────────────────────────

const invoiceColumns = `id, description, issued_date, service_start, service_end,
       amount, status, purchase_order_id, created_at`

func scanInvoice(row pgx.Row) (*core.Invoice, error) {
	inv := &core.Invoice{}
	err := row.Scan(
		&inv.ID, &inv.Description, &inv.IssuedDate, &inv.ServiceStart,
		&inv.ServiceEnd, &inv.Amount, &inv.Status, &inv.PurchaseOrderID,
		&inv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Postgres) InsertInvoice(ctx context.Context, inv *core.Invoice) (*core.Invoice, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO invoices (description, issued_date, service_start, service_end,
		                      amount, status, purchase_order_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+invoiceColumns,
		inv.Description, inv.IssuedDate, inv.ServiceStart, inv.ServiceEnd,
		inv.Amount, inv.Status, inv.PurchaseOrderID,
	)
	created, err := scanInvoice(row)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	return created, nil
}

func (s *Postgres) GetInvoice(ctx context.Context, id int64) (*core.Invoice, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1", id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{Resource: "invoice", ID: id}
		}
		return nil, fmt.Errorf("get invoice %d: %w", id, err)
	}
	return inv, nil
}

func (s *Postgres) ListInvoices(ctx context.Context, f core.InvoiceFilter) ([]core.Invoice, error) {
	q := "SELECT " + invoiceColumns + " FROM invoices WHERE true"
	var args []any

	if f.PurchaseOrderID != nil {
		args = append(args, *f.PurchaseOrderID)
		q += fmt.Sprintf(" AND purchase_order_id = $%d", len(args))
	}
	if f.VendorID != nil {
		args = append(args, *f.VendorID)
		q += fmt.Sprintf(" AND purchase_order_id IN (SELECT id FROM purchase_orders WHERE vendor_id = $%d)", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.ServiceEndOnOrAfter != nil {
		args = append(args, *f.ServiceEndOnOrAfter)
		q += fmt.Sprintf(" AND service_end >= $%d::date", len(args))
	}
	q += " ORDER BY id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func (s *Postgres) UpdateInvoiceStatus(ctx context.Context, id int64, status core.InvoiceStatus) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE invoices SET status = $1 WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("update invoice %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &core.NotFoundError{Resource: "invoice", ID: id}
	}
	return nil
}

// ── Journal entries ───────────────────────────────────────────────────────────

// InsertTransaction writes all entries of one transaction group inside a
// single database transaction, so a crash mid-posting can never leave a
// half-written group behind.
func (s *Postgres) InsertTransaction(ctx context.Context, entries []core.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		_, err := tx.Exec(ctx, `
			INSERT INTO journal_entries
			            (date, transaction_id, account, amount, entry_type, category,
			             description, invoice_id, purchase_order_id, period_key)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.Date, e.TransactionID, e.Account, e.Amount, e.EntryType, e.Category,
			e.Description, e.InvoiceID, e.PurchaseOrderID, e.PeriodKey,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return core.Validationf("period %s already accrued for purchase order %d",
					deref(e.PeriodKey), deref64(e.PurchaseOrderID))
			}
			return fmt.Errorf("insert journal entry: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Postgres) ListJournalEntries(ctx context.Context, f core.EntryFilter) ([]core.JournalEntry, error) {
	q := `SELECT id, date, transaction_id, account, amount, entry_type, category,
	             description, invoice_id, purchase_order_id, period_key
	      FROM journal_entries WHERE true`
	var args []any

	if f.PurchaseOrderID != nil {
		args = append(args, *f.PurchaseOrderID)
		q += fmt.Sprintf(" AND purchase_order_id = $%d", len(args))
	}
	if f.InvoiceID != nil {
		args = append(args, *f.InvoiceID)
		q += fmt.Sprintf(" AND invoice_id = $%d", len(args))
	}
	if f.Account != nil {
		args = append(args, *f.Account)
		q += fmt.Sprintf(" AND account = $%d", len(args))
	}
	if f.EntryType != nil {
		args = append(args, *f.EntryType)
		q += fmt.Sprintf(" AND entry_type = $%d", len(args))
	}
	if f.PeriodKey != nil {
		args = append(args, *f.PeriodKey)
		q += fmt.Sprintf(" AND period_key = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		q += fmt.Sprintf(" AND date >= $%d::date", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		q += fmt.Sprintf(" AND date <= $%d::date", len(args))
	}
	if f.UnlinkedToInvoice {
		q += " AND invoice_id IS NULL"
	}
	q += " ORDER BY date ASC, id ASC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []core.JournalEntry
	for rows.Next() {
		var e core.JournalEntry
		if err := rows.Scan(
			&e.ID, &e.Date, &e.TransactionID, &e.Account, &e.Amount,
			&e.EntryType, &e.Category, &e.Description,
			&e.InvoiceID, &e.PurchaseOrderID, &e.PeriodKey,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deref64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}
