package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// VendorService handles vendor onboarding and purchase order creation. The
// per-month amount is derived here once, at creation time; the accrual engine
// never recomputes it.
type VendorService struct {
	store Store
	txID  TxIDSource
	log   zerolog.Logger
}

func NewVendorService(store Store, log zerolog.Logger) *VendorService {
	return &VendorService{store: store, txID: NewTxID, log: log}
}

// CreateVendor inserts a vendor. Names are unique; the store surfaces a
// ValidationError on collision.
func (s *VendorService) CreateVendor(ctx context.Context, name string) (*Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validationf("vendor name is required")
	}
	return s.store.CreateVendor(ctx, name)
}

func (s *VendorService) GetVendor(ctx context.Context, id int64) (*Vendor, error) {
	return s.store.GetVendor(ctx, id)
}

func (s *VendorService) ListVendors(ctx context.Context) ([]Vendor, error) {
	return s.store.ListVendors(ctx)
}

func (s *VendorService) ListPurchaseOrders(ctx context.Context, vendorID int64) ([]PurchaseOrder, error) {
	if _, err := s.store.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}
	return s.store.ListPurchaseOrdersByVendor(ctx, vendorID)
}

// DeactivatePurchaseOrder takes a purchase order out of the accrual cycle.
func (s *VendorService) DeactivatePurchaseOrder(ctx context.Context, id int64) error {
	if _, err := s.store.GetPurchaseOrder(ctx, id); err != nil {
		return err
	}
	return s.store.SetPurchaseOrderActive(ctx, id, false)
}

// CreatePurchaseOrderRequest carries one purchase order to onboard.
type CreatePurchaseOrderRequest struct {
	VendorID       int64
	Description    string
	TotalAmount    decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	Frequency      Frequency
	AdvancePayment decimal.Decimal
}

func (r *CreatePurchaseOrderRequest) validate() error {
	if r.Description == "" {
		return Validationf("description is required")
	}
	if !r.TotalAmount.IsPositive() {
		return Validationf("total_amount must be positive, got %s", r.TotalAmount)
	}
	if r.StartDate.IsZero() || r.EndDate.IsZero() {
		return Validationf("start_date and end_date are required")
	}
	switch r.Frequency {
	case OneTime, Monthly, Quarterly, BiAnnually, Annually:
	default:
		return Validationf("unknown frequency %q", r.Frequency)
	}
	if r.Frequency == OneTime && !r.StartDate.Equal(r.EndDate) {
		return Validationf("start date and end date must be equal for one-time purchase orders")
	}
	if r.Frequency != OneTime && !r.EndDate.After(r.StartDate) {
		return Validationf("end_date must be after start_date")
	}
	if r.AdvancePayment.IsNegative() {
		return Validationf("advance_payment cannot be negative")
	}
	if r.AdvancePayment.GreaterThan(r.TotalAmount) {
		return Validationf("advance_payment %s exceeds total_amount %s",
			r.AdvancePayment.StringFixed(2), r.TotalAmount.StringFixed(2))
	}
	return nil
}

// CreatePurchaseOrder onboards a purchase order for a vendor. A vendor can
// hold at most one active purchase order. If an advance payment is given, the
// opening DR Advance Payment / CR Cash entries are posted immediately so the
// accrual engine's advance balance has a source.
func (s *VendorService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.GetVendor(ctx, req.VendorID); err != nil {
		return nil, err
	}

	existing, err := s.store.ListPurchaseOrdersByVendor(ctx, req.VendorID)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	for _, po := range existing {
		if po.IsActive {
			return nil, Validationf("there is already an active purchase order for vendor %d", req.VendorID)
		}
	}

	perMonth := decimal.Zero
	if req.Frequency != OneTime {
		months := monthsBetween(req.StartDate, req.EndDate)
		if months <= 0 {
			return nil, Validationf("purchase order term must span at least one month")
		}
		perMonth = req.TotalAmount.Sub(req.AdvancePayment).Div(decimal.NewFromInt(int64(months)))
	}

	po, err := s.store.CreatePurchaseOrder(ctx, &PurchaseOrder{
		VendorID:       req.VendorID,
		Description:    req.Description,
		TotalAmount:    req.TotalAmount,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		AmountPerMonth: perMonth,
		Frequency:      req.Frequency,
		IsActive:       true,
		AdvancePayment: req.AdvancePayment,
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}

	if req.AdvancePayment.IsPositive() {
		desc := fmt.Sprintf("Advance payment for PO #%d", po.ID)
		posting := NewPosting(s.txID(), req.StartDate).ForPurchaseOrder(po.ID)
		posting.Debit(AdvancePayment, req.AdvancePayment, desc)
		posting.Credit(CashAccount, req.AdvancePayment, desc)
		if err := s.store.InsertTransaction(ctx, posting.Entries()); err != nil {
			return nil, fmt.Errorf("post advance payment: %w", err)
		}
	}

	s.log.Info().
		Int64("purchase_order_id", po.ID).
		Int64("vendor_id", po.VendorID).
		Str("frequency", string(po.Frequency)).
		Str("amount_per_month", po.AmountPerMonth.StringFixed(2)).
		Msg("purchase order created")
	return po, nil
}

// monthsBetween counts calendar months from start to end, the way the
// per-month amount has always been derived: (2024-01-01, 2024-12-31) is 11.
func monthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}
