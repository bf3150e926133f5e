package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

type MovementRepository struct {
	db *sqlx.DB
}

func NewMovementRepository(db *sqlx.DB) *MovementRepository {
	return &MovementRepository{db: db}
}

func (r *MovementRepository) List(ctx context.Context, f domain.MovementFilter) ([]domain.StockMovement, error) {
	var (
		conditions []string
		args       []any
	)
	if f.MedicineID > 0 {
		conditions = append(conditions, "sm.medicine_id = ?")
		args = append(args, f.MedicineID)
	}
	if f.MovementType != "" {
		conditions = append(conditions, "sm.movement_type = ?")
		args = append(args, f.MovementType)
	}
	if f.StartDate != "" {
		conditions = append(conditions, "date(sm.created_at) >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conditions = append(conditions, "date(sm.created_at) <= ?")
		args = append(args, f.EndDate)
	}
	limit, _ := pageArgs(f.Limit, 0)

	movements := []domain.StockMovement{}
	err := r.db.SelectContext(ctx, &movements, `SELECT sm.id, sm.medicine_id, m.name AS medicine_name, sm.movement_type,
            sm.quantity_change, sm.quantity_before, sm.quantity_after, sm.reference_type, sm.reference_id, sm.notes,
            sm.user_id, sm.created_at
            FROM stock_movements sm
            JOIN medicines m ON m.id = sm.medicine_id`+whereClause(conditions)+`
            ORDER BY sm.created_at DESC, sm.id DESC LIMIT ?`, append(args, limit)...)
	return movements, errors.Wrap(err, "list stock movements")
}
