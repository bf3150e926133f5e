package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

type PurchaseRepository struct {
	db *sqlx.DB
}

func NewPurchaseRepository(db *sqlx.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseSelect = `SELECT p.id, p.medicine_id, m.name AS medicine_name, p.supplier_name, p.invoice_number, p.quantity_cartons,
            p.units_received, p.price_per_carton, p.total_cost, p.purchase_date, p.expiry_date, p.user_id, p.notes, p.created_at
            FROM purchases p
            JOIN medicines m ON m.id = p.medicine_id`

// Create records the purchase and receives its units into stock. The
// medicine's carton price follows the latest purchase; a new expiry date
// replaces the old one and, when reactivate is set, lifts an expired status.
func (r *PurchaseRepository) Create(ctx context.Context, p *domain.Purchase, reactivate bool) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, err := stockOf(ctx, tx, p.MedicineID)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO purchases
                (medicine_id, supplier_name, invoice_number, quantity_cartons, units_received, price_per_carton, total_cost,
                 purchase_date, expiry_date, user_id, notes, created_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.MedicineID, p.SupplierName, p.InvoiceNumber, p.QuantityCartons, p.UnitsReceived, p.PricePerCarton, p.TotalCost,
			p.PurchaseDate, p.ExpiryDate, p.UserID, p.Notes, p.CreatedAt)
		if err != nil {
			return errors.Wrap(err, "insert purchase")
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return errors.Wrap(err, "insert purchase")
		}

		_, err = tx.ExecContext(ctx, `UPDATE medicines SET
                quantity_in_stock = quantity_in_stock + ?,
                purchase_price_per_carton = ?,
                expiry_date = COALESCE(?, expiry_date),
                status = CASE WHEN ? AND status = 'expired' THEN 'active' ELSE status END,
                updated_at = ?
                WHERE id = ?`,
			p.UnitsReceived, p.PricePerCarton, p.ExpiryDate, reactivate, p.CreatedAt, p.MedicineID)
		if err != nil {
			return errors.Wrap(err, "receive purchase into stock")
		}

		return insertMovement(ctx, tx, domain.StockMovement{
			MedicineID:     p.MedicineID,
			MovementType:   domain.MovementPurchase,
			QuantityChange: p.UnitsReceived,
			QuantityBefore: before,
			QuantityAfter:  before + p.UnitsReceived,
			ReferenceType:  "purchase",
			ReferenceID:    &p.ID,
			Notes:          p.SupplierName,
			UserID:         p.UserID,
			CreatedAt:      p.CreatedAt,
		})
	})
}

func (r *PurchaseRepository) Get(ctx context.Context, id int64) (*domain.Purchase, error) {
	var p domain.Purchase
	if err := r.db.GetContext(ctx, &p, purchaseSelect+" WHERE p.id = ?", id); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PurchaseRepository) List(ctx context.Context, f domain.PurchaseFilter) ([]domain.Purchase, int64, error) {
	var (
		conditions []string
		args       []any
	)
	if f.MedicineID > 0 {
		conditions = append(conditions, "p.medicine_id = ?")
		args = append(args, f.MedicineID)
	}
	if f.Supplier != "" {
		conditions = append(conditions, "p.supplier_name LIKE ?")
		args = append(args, "%"+f.Supplier+"%")
	}
	if f.StartDate != "" {
		conditions = append(conditions, "p.purchase_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conditions = append(conditions, "p.purchase_date <= ?")
		args = append(args, f.EndDate)
	}
	where := whereClause(conditions)

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM purchases p"+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count purchases")
	}
	limit, offset := pageArgs(f.Limit, f.Offset)
	purchases := []domain.Purchase{}
	err := r.db.SelectContext(ctx, &purchases, purchaseSelect+where+" ORDER BY p.purchase_date DESC, p.id DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list purchases")
	}
	return purchases, total, nil
}

// Delete removes a purchase and takes its units back out of stock. It fails
// with ErrInsufficientStock once those units have been sold.
func (r *PurchaseRepository) Delete(ctx context.Context, id int64, userID *int64, stamp string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var p domain.Purchase
		if err := tx.GetContext(ctx, &p, `SELECT id, medicine_id, units_received, supplier_name FROM purchases WHERE id = ?`, id); err != nil {
			return notFound(err)
		}
		before, err := stockOf(ctx, tx, p.MedicineID)
		if err != nil {
			return err
		}
		if err := decrementStock(ctx, tx, p.MedicineID, p.UnitsReceived, stamp); err != nil {
			return errors.Wrap(err, "purchased units already sold")
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchases WHERE id = ?`, id); err != nil {
			return errors.Wrap(err, "delete purchase")
		}
		return insertMovement(ctx, tx, domain.StockMovement{
			MedicineID:     p.MedicineID,
			MovementType:   domain.MovementPurchaseReversal,
			QuantityChange: -p.UnitsReceived,
			QuantityBefore: before,
			QuantityAfter:  before - p.UnitsReceived,
			ReferenceType:  "purchase",
			ReferenceID:    &p.ID,
			Notes:          "purchase deleted",
			UserID:         userID,
			CreatedAt:      stamp,
		})
	})
}
