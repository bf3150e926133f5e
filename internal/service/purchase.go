package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/repository"
)

type PurchaseInput struct {
	MedicineID      int64    `json:"medicine_id" validate:"required,gt=0"`
	SupplierName    string   `json:"supplier_name" validate:"max=200"`
	InvoiceNumber   string   `json:"invoice_number" validate:"max=100"`
	QuantityCartons int64    `json:"quantity_cartons" validate:"required,gt=0"`
	PricePerCarton  *float64 `json:"price_per_carton" validate:"omitempty,gte=0"`
	PurchaseDate    string   `json:"purchase_date" validate:"omitempty,datetime=2006-01-02"`
	ExpiryDate      string   `json:"expiry_date" validate:"omitempty,datetime=2006-01-02"`
	Notes           string   `json:"notes" validate:"max=1000"`
}

type PurchaseService struct {
	repo      *repository.PurchaseRepository
	medicines *repository.MedicineRepository
	log       *zap.Logger
	clock     clock
}

// Create receives cartons of a medicine into stock. The carton price defaults
// to the medicine's current purchase price and the date to today.
func (s *PurchaseService) Create(ctx context.Context, in PurchaseInput, userID *int64) (*domain.Purchase, error) {
	if err := checkStruct(in); err != nil {
		return nil, err
	}
	m, err := s.medicines.Get(ctx, in.MedicineID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Invalid("medicine_id", "medicine %d does not exist", in.MedicineID)
	}
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	price := m.PurchasePricePerCarton
	if in.PricePerCarton != nil {
		price = *in.PricePerCarton
	}
	purchaseDate := in.PurchaseDate
	if purchaseDate == "" {
		purchaseDate = today
	}
	var expiry *string
	if in.ExpiryDate != "" {
		expiry = &in.ExpiryDate
	}

	p := &domain.Purchase{
		MedicineID:      m.ID,
		MedicineName:    m.Name,
		SupplierName:    strings.TrimSpace(in.SupplierName),
		InvoiceNumber:   strings.TrimSpace(in.InvoiceNumber),
		QuantityCartons: in.QuantityCartons,
		UnitsReceived:   in.QuantityCartons * m.UnitsPerCarton,
		PricePerCarton:  money(price).InexactFloat64(),
		TotalCost:       money(price).Mul(decimal.NewFromInt(in.QuantityCartons)).Round(2).InexactFloat64(),
		PurchaseDate:    purchaseDate,
		ExpiryDate:      expiry,
		UserID:          userID,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       s.clock.Stamp(),
	}
	reactivate := expiry != nil && *expiry >= today
	if err := s.repo.Create(ctx, p, reactivate); err != nil {
		return nil, errors.Wrapf(err, "receive purchase of medicine %d", m.ID)
	}
	s.log.Info("purchase received",
		zap.Int64("id", p.ID),
		zap.Int64("medicine_id", m.ID),
		zap.Int64("units", p.UnitsReceived),
		zap.Float64("total_cost", p.TotalCost))
	return s.repo.Get(ctx, p.ID)
}

func (s *PurchaseService) List(ctx context.Context, f domain.PurchaseFilter) ([]domain.Purchase, int64, error) {
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
	return s.repo.List(ctx, f)
}

// Delete cancels a purchase, taking its units back out of stock. It fails
// with insufficient stock when some of them were already sold.
func (s *PurchaseService) Delete(ctx context.Context, id int64, userID *int64) error {
	if err := s.repo.Delete(ctx, id, userID, s.clock.Stamp()); err != nil {
		return errors.Wrapf(err, "delete purchase %d", id)
	}
	s.log.Info("purchase deleted", zap.Int64("id", id))
	return nil
}
