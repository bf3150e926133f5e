package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"pharmapos/m/domain"
	"pharmapos/m/internal/repository"
)

// MedicineInput is the body of a medicine create or full update.
type MedicineInput struct {
	Name                   string  `json:"name" validate:"required,max=200"`
	GenericName            string  `json:"generic_name" validate:"max=200"`
	CategoryID             *int64  `json:"category_id" validate:"omitempty,gt=0"`
	Manufacturer           string  `json:"manufacturer" validate:"max=200"`
	BatchNumber            string  `json:"batch_number" validate:"max=100"`
	PurchasePricePerCarton float64 `json:"purchase_price_per_carton" validate:"gte=0"`
	UnitsPerCarton         int64   `json:"units_per_carton" validate:"gt=0"`
	SellingPriceFull       float64 `json:"selling_price_full" validate:"gte=0"`
	SellingPriceHalf       float64 `json:"selling_price_half" validate:"gte=0"`
	SellingPriceSingle     float64 `json:"selling_price_single" validate:"gte=0"`
	QuantityInStock        int64   `json:"quantity_in_stock" validate:"gte=0"`
	ReorderLevel           int64   `json:"reorder_level" validate:"gte=0"`
	ExpiryDate             string  `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	Status                 string  `json:"status" validate:"omitempty,oneof=active inactive expired"`
}

type StockAdjustment struct {
	Change int64  `json:"change" validate:"required"`
	Reason string `json:"reason" validate:"max=500"`
}

type MedicineService struct {
	repo       *repository.MedicineRepository
	categories *repository.CategoryRepository
	movements  *repository.MovementRepository
	log        *zap.Logger
	clock      clock
}

func (s *MedicineService) normalize(ctx context.Context, in *MedicineInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ExpiryDate = strings.TrimSpace(in.ExpiryDate)
	if in.UnitsPerCarton == 0 {
		in.UnitsPerCarton = 1
	}
	if err := checkStruct(in); err != nil {
		return err
	}
	if in.SellingPriceFull <= 0 && in.SellingPriceHalf <= 0 && in.SellingPriceSingle <= 0 {
		return domain.Invalid("selling_price_single", "at least one selling price must be greater than 0")
	}
	if in.SellingPriceHalf > 0 && in.UnitsPerCarton < 2 {
		return domain.Invalid("selling_price_half", "half cartons need at least 2 units per carton")
	}
	if in.CategoryID != nil {
		if _, err := s.categories.Get(ctx, *in.CategoryID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.Invalid("category_id", "category %d does not exist", *in.CategoryID)
			}
			return err
		}
	}
	return nil
}

func (s *MedicineService) fromInput(in MedicineInput) *domain.Medicine {
	status := in.Status
	if status == "" {
		status = domain.MedicineActive
	}
	if status == domain.MedicineActive && in.ExpiryDate < s.clock.Today() {
		status = domain.MedicineExpired
	}
	stamp := s.clock.Stamp()
	return &domain.Medicine{
		Name:                   in.Name,
		GenericName:            strings.TrimSpace(in.GenericName),
		CategoryID:             in.CategoryID,
		Manufacturer:           strings.TrimSpace(in.Manufacturer),
		BatchNumber:            strings.TrimSpace(in.BatchNumber),
		PurchasePricePerCarton: in.PurchasePricePerCarton,
		UnitsPerCarton:         in.UnitsPerCarton,
		SellingPriceFull:       in.SellingPriceFull,
		SellingPriceHalf:       in.SellingPriceHalf,
		SellingPriceSingle:     in.SellingPriceSingle,
		QuantityInStock:        in.QuantityInStock,
		ReorderLevel:           in.ReorderLevel,
		ExpiryDate:             in.ExpiryDate,
		Status:                 status,
		CreatedAt:              stamp,
		UpdatedAt:              stamp,
	}
}

// Create adds a medicine. When one with the same name and category already
// exists, the incoming stock is added to it and the prices, reorder level and
// expiry sent with the request are refreshed instead; created is false in that
// case.
func (s *MedicineService) Create(ctx context.Context, in MedicineInput, userID *int64) (m *domain.Medicine, created bool, err error) {
	in.Name = strings.TrimSpace(in.Name)
	var existing *domain.Medicine
	if in.Name != "" {
		existing, err = s.repo.FindByNameAndCategory(ctx, in.Name, in.CategoryID)
		switch {
		case err == nil:
			if err := mergeInto(existing, &in); err != nil {
				return nil, false, err
			}
		case errors.Is(err, domain.ErrNotFound):
			existing = nil
		default:
			return nil, false, errors.Wrap(err, "look up medicine")
		}
	}

	if err := s.normalize(ctx, &in); err != nil {
		return nil, false, err
	}
	incoming := s.fromInput(in)

	if existing != nil {
		if in.Status == "" && existing.Status == domain.MedicineInactive {
			incoming.Status = domain.MedicineInactive
		}
		m, err = s.repo.Restock(ctx, existing.ID, in.QuantityInStock, incoming, userID)
		if err != nil {
			return nil, false, errors.Wrapf(err, "restock medicine %d", existing.ID)
		}
		s.log.Info("medicine merged into existing stock",
			zap.Int64("id", m.ID),
			zap.String("name", m.Name),
			zap.Int64("added", in.QuantityInStock),
			zap.Int64("quantity_in_stock", m.QuantityInStock))
		return m, false, nil
	}

	if err := s.repo.Create(ctx, incoming, userID); err != nil {
		return nil, false, err
	}
	s.log.Info("medicine created", zap.Int64("id", incoming.ID), zap.String("name", incoming.Name))
	m, err = s.repo.Get(ctx, incoming.ID)
	return m, true, err
}

// mergeInto fills the fields a duplicate entry left empty from the existing
// medicine. Stock already on the shelf is counted in the existing carton size,
// so a different units_per_carton is rejected.
func mergeInto(existing *domain.Medicine, in *MedicineInput) error {
	switch in.UnitsPerCarton {
	case 0:
		in.UnitsPerCarton = existing.UnitsPerCarton
	case existing.UnitsPerCarton:
	default:
		return domain.Invalid("units_per_carton",
			"%s is stocked in cartons of %d; use a separate entry for a different pack size", existing.Name, existing.UnitsPerCarton)
	}
	keep := func(v *float64, old float64) {
		if *v == 0 {
			*v = old
		}
	}
	keep(&in.PurchasePricePerCarton, existing.PurchasePricePerCarton)
	keep(&in.SellingPriceFull, existing.SellingPriceFull)
	keep(&in.SellingPriceHalf, existing.SellingPriceHalf)
	keep(&in.SellingPriceSingle, existing.SellingPriceSingle)
	if in.ReorderLevel == 0 {
		in.ReorderLevel = existing.ReorderLevel
	}
	if strings.TrimSpace(in.GenericName) == "" {
		in.GenericName = existing.GenericName
	}
	if strings.TrimSpace(in.Manufacturer) == "" {
		in.Manufacturer = existing.Manufacturer
	}
	if strings.TrimSpace(in.BatchNumber) == "" {
		in.BatchNumber = existing.BatchNumber
	}
	return nil
}

// Update replaces every editable field of the medicine.
func (s *MedicineService) Update(ctx context.Context, id int64, in MedicineInput, userID *int64) (*domain.Medicine, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = current.Status
		if current.Status == domain.MedicineExpired {
			in.Status = domain.MedicineActive
		}
	}
	if err := s.normalize(ctx, &in); err != nil {
		return nil, err
	}
	m := s.fromInput(in)
	m.ID = id
	m.CreatedAt = current.CreatedAt
	if err := s.repo.Update(ctx, m, userID); err != nil {
		return nil, errors.Wrapf(err, "update medicine %d", id)
	}
	return s.repo.Get(ctx, id)
}

func (s *MedicineService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("medicine deleted", zap.Int64("id", id))
	return nil
}

func (s *MedicineService) Get(ctx context.Context, id int64) (*domain.Medicine, error) {
	return s.repo.Get(ctx, id)
}

func (s *MedicineService) List(ctx context.Context, f domain.MedicineFilter) ([]domain.MedicineWithStats, int64, error) {
	return s.repo.List(ctx, f)
}

// AdjustStock applies a manual correction and records it in the ledger.
func (s *MedicineService) AdjustStock(ctx context.Context, id int64, adj StockAdjustment, userID *int64) (*domain.Medicine, error) {
	if err := checkStruct(adj); err != nil {
		return nil, err
	}
	after, err := s.repo.AdjustStock(ctx, id, adj.Change, strings.TrimSpace(adj.Reason), userID, s.clock.Stamp())
	if err != nil {
		return nil, errors.Wrapf(err, "adjust stock of medicine %d", id)
	}
	s.log.Info("stock adjusted",
		zap.Int64("medicine_id", id),
		zap.Int64("change", adj.Change),
		zap.Int64("quantity_in_stock", after))
	return s.repo.Get(ctx, id)
}

func (s *MedicineService) LowStock(ctx context.Context) ([]domain.Medicine, error) {
	return s.repo.LowStock(ctx)
}

// Expiring lists stocked medicines expiring within the next days days.
func (s *MedicineService) Expiring(ctx context.Context, days int) ([]domain.Medicine, error) {
	if days <= 0 {
		days = 30
	}
	today := s.clock.Midnight()
	return s.repo.Expiring(ctx, today.Format(domain.DateLayout), today.AddDate(0, 0, days).Format(domain.DateLayout))
}

// SweepExpired flags active medicines past their expiry date.
func (s *MedicineService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkExpired(ctx, s.clock.Today(), s.clock.Stamp())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("medicines marked expired", zap.Int64("count", n))
	}
	return n, nil
}

func (s *MedicineService) Movements(ctx context.Context, f domain.MovementFilter) ([]domain.StockMovement, error) {
	if f.StartDate != "" {
		if _, err := parseDate("start_date", f.StartDate); err != nil {
			return nil, err
		}
	}
	if f.EndDate != "" {
		if _, err := parseDate("end_date", f.EndDate); err != nil {
			return nil, err
		}
	}
	return s.movements.List(ctx, f)
}
