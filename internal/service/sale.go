package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/repository"
)

type SaleItemInput struct {
	MedicineID int64  `json:"medicine_id" validate:"required,gt=0"`
	UnitType   string `json:"unit_type" validate:"required,oneof=full half single"`
	Quantity   int64  `json:"quantity" validate:"required,gt=0"`
}

type SaleInput struct {
	CustomerName  string          `json:"customer_name" validate:"max=200"`
	CustomerPhone string          `json:"customer_phone" validate:"max=50"`
	Items         []SaleItemInput `json:"items" validate:"required,min=1,dive"`
	Discount      float64         `json:"discount" validate:"gte=0"`
	Tax           float64         `json:"tax" validate:"gte=0"`
	AmountPaid    float64         `json:"amount_paid" validate:"gte=0"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,oneof=cash card mobile insurance"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

type SaleService struct {
	repo      *repository.SaleRepository
	medicines *repository.MedicineRepository
	log       *zap.Logger
	clock     clock
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// Create prices the cart, checks the payment and records the sale together
// with its stock decrements.
func (s *SaleService) Create(ctx context.Context, in SaleInput, userID *int64) (*domain.SaleDetail, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentCash
	}

	now := s.clock.Now()
	today := now.Format(domain.DateLayout)

	var (
		items    = make([]domain.SaleItem, 0, len(in.Items))
		loaded   = make(map[int64]*domain.Medicine)
		needed   = make(map[int64]int64)
		subtotal = decimal.Zero
	)
	for i, line := range in.Items {
		m, ok := loaded[line.MedicineID]
		if !ok {
			var err error
			m, err = s.medicines.Get(ctx, line.MedicineID)
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Invalid("items", "line %d: medicine %d does not exist", i+1, line.MedicineID)
			}
			if err != nil {
				return nil, err
			}
			loaded[line.MedicineID] = m
		}

		switch {
		case m.Status != domain.MedicineActive:
			return nil, domain.Invalid("items", "%s is %s and cannot be sold", m.Name, m.Status)
		case m.ExpiryDate < today:
			return nil, domain.Invalid("items", "%s expired on %s", m.Name, m.ExpiryDate)
		case line.UnitType == domain.UnitHalf && m.UnitsPerCarton < 2:
			return nil, domain.Invalid("items", "%s cannot be sold by half carton", m.Name)
		}
		price := m.PriceFor(line.UnitType)
		if price <= 0 {
			return nil, domain.Invalid("items", "%s has no %s price", m.Name, line.UnitType)
		}

		perItem := m.UnitsPer(line.UnitType)
		qty := decimal.NewFromInt(line.Quantity)
		unitPrice := money(price)
		lineTotal := unitPrice.Mul(qty).Round(2)
		unitCost := decimal.NewFromFloat(m.UnitCost()).Mul(decimal.NewFromInt(perItem)).Round(4)

		subtotal = subtotal.Add(lineTotal)
		needed[m.ID] += perItem * line.Quantity
		items = append(items, domain.SaleItem{
			MedicineID:   m.ID,
			MedicineName: m.Name,
			UnitType:     line.UnitType,
			Quantity:     line.Quantity,
			Units:        perItem * line.Quantity,
			UnitPrice:    unitPrice.InexactFloat64(),
			UnitCost:     unitCost.InexactFloat64(),
			TotalPrice:   lineTotal.InexactFloat64(),
		})
	}

	for id, units := range needed {
		if m := loaded[id]; m.QuantityInStock < units {
			return nil, errors.Wrapf(domain.ErrInsufficientStock, "%s: %d units available, %d requested", m.Name, m.QuantityInStock, units)
		}
	}

	discount := money(in.Discount)
	tax := money(in.Tax)
	if discount.GreaterThan(subtotal) {
		return nil, domain.Invalid("discount", "cannot exceed the subtotal of %s", subtotal.StringFixed(2))
	}
	total := subtotal.Sub(discount).Add(tax)
	paid := money(in.AmountPaid)
	if paid.LessThan(total) {
		return nil, errors.Wrapf(domain.ErrInsufficientPayment, "paid %s of %s", paid.StringFixed(2), total.StringFixed(2))
	}

	sale := &domain.Sale{
		InvoiceNumber: invoiceNumber(now.Format("20060102")),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		CustomerPhone: strings.TrimSpace(in.CustomerPhone),
		Subtotal:      subtotal.InexactFloat64(),
		Discount:      discount.InexactFloat64(),
		Tax:           tax.InexactFloat64(),
		TotalAmount:   total.InexactFloat64(),
		AmountPaid:    paid.InexactFloat64(),
		ChangeAmount:  paid.Sub(total).InexactFloat64(),
		PaymentMethod: in.PaymentMethod,
		Status:        domain.SaleCompleted,
		UserID:        userID,
		Notes:         strings.TrimSpace(in.Notes),
		CreatedAt:     now.Format(domain.TimestampLayout),
	}
	if err := s.repo.Create(ctx, sale, items); err != nil {
		return nil, errors.Wrap(err, "record sale")
	}
	s.log.Info("sale recorded",
		zap.Int64("id", sale.ID),
		zap.String("invoice", sale.InvoiceNumber),
		zap.Float64("total", sale.TotalAmount),
		zap.Int("lines", len(items)))
	return s.repo.Get(ctx, sale.ID)
}

func invoiceNumber(day string) string {
	return fmt.Sprintf("INV-%s-%s", day, strings.ToUpper(uuid.NewString()[:8]))
}

// Void cancels a completed sale and returns its units to stock.
func (s *SaleService) Void(ctx context.Context, id int64, reason string, userID *int64) (*domain.SaleDetail, error) {
	if err := s.repo.Void(ctx, id, userID, strings.TrimSpace(reason), s.clock.Stamp()); err != nil {
		return nil, errors.Wrapf(err, "void sale %d", id)
	}
	s.log.Info("sale voided", zap.Int64("id", id), zap.String("reason", reason))
	return s.repo.Get(ctx, id)
}

func (s *SaleService) Get(ctx context.Context, id int64) (*domain.SaleDetail, error) {
	return s.repo.Get(ctx, id)
}

func (s *SaleService) List(ctx context.Context, f domain.SaleFilter) ([]domain.Sale, int64, error) {
	if f.StartDate != "" {
		if _, err := parseDate("start_date", f.StartDate); err != nil {
			return nil, 0, err
		}
	}
	if f.EndDate != "" {
		if _, err := parseDate("end_date", f.EndDate); err != nil {
			return nil, 0, err
		}
	}
	if f.Status != "" && f.Status != domain.SaleCompleted && f.Status != domain.SaleVoided {
		return nil, 0, domain.Invalid("status", "must be one of: completed, voided")
	}
	return s.repo.List(ctx, f)
}
