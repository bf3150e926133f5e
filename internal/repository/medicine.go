package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

var medicineSortColumns = map[string]string{
	"name":                 "m.name",
	"generic_name":         "m.generic_name",
	"expiry_date":          "m.expiry_date",
	"quantity_in_stock":    "m.quantity_in_stock",
	"selling_price_single": "m.selling_price_single",
	"created_at":           "m.created_at",
	"total_sold":           "total_sold",
	"total_revenue":        "total_revenue",
}

type MedicineRepository struct {
	db *sqlx.DB
}

func NewMedicineRepository(db *sqlx.DB) *MedicineRepository {
	return &MedicineRepository{db: db}
}

func medicineConditions(f domain.MedicineFilter) ([]string, []any) {
	var (
		conditions []string
		args       []any
	)
	if f.Search != "" {
		like := "%" + f.Search + "%"
		conditions = append(conditions, "(m.name LIKE ? OR m.generic_name LIKE ? OR m.manufacturer LIKE ?)")
		args = append(args, like, like, like)
	}
	if f.CategoryID > 0 {
		conditions = append(conditions, "m.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.Status != "" {
		conditions = append(conditions, "m.status = ?")
		args = append(args, f.Status)
	}
	if f.LowStock {
		conditions = append(conditions, "m.quantity_in_stock <= m.reorder_level")
	}
	if f.ExpiringBefore != "" {
		conditions = append(conditions, "m.expiry_date <= ?")
		args = append(args, f.ExpiringBefore)
	}
	return conditions, args
}

// List returns one page of medicines with their sales aggregates and the
// total number of matching rows.
func (r *MedicineRepository) List(ctx context.Context, f domain.MedicineFilter) ([]domain.MedicineWithStats, int64, error) {
	conditions, args := medicineConditions(f)
	where := whereClause(conditions)

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM medicines m"+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count medicines")
	}

	sortCol, ok := medicineSortColumns[f.SortBy]
	if !ok {
		sortCol = "m.name"
	}
	order := "ASC"
	if f.SortDesc {
		order = "DESC"
	}
	limit, offset := pageArgs(f.Limit, f.Offset)

	query := `SELECT ` + medicineColumns + `,
            COALESCE(s.total_sold, 0) AS total_sold,
            COALESCE(s.total_revenue, 0.0) AS total_revenue,
            s.last_sold_at` + medicineFrom + `
            LEFT JOIN (
                SELECT si.medicine_id, SUM(si.units) AS total_sold, SUM(si.total_price) AS total_revenue, MAX(sa.created_at) AS last_sold_at
                FROM sale_items si
                JOIN sales sa ON sa.id = si.sale_id AND sa.status = 'completed'
                GROUP BY si.medicine_id
            ) s ON s.medicine_id = m.id` + where +
		fmt.Sprintf(" ORDER BY %s %s, m.id ASC LIMIT ? OFFSET ?", sortCol, order)

	medicines := []domain.MedicineWithStats{}
	if err := r.db.SelectContext(ctx, &medicines, query, append(args, limit, offset)...); err != nil {
		return nil, 0, errors.Wrap(err, "list medicines")
	}
	return medicines, total, nil
}

func (r *MedicineRepository) Get(ctx context.Context, id int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := r.db.GetContext(ctx, &m, "SELECT "+medicineColumns+medicineFrom+" WHERE m.id = ?", id)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// FindByNameAndCategory matches names case-insensitively; a nil category only
// matches medicines without a category.
func (r *MedicineRepository) FindByNameAndCategory(ctx context.Context, name string, categoryID *int64) (*domain.Medicine, error) {
	var m domain.Medicine
	err := r.db.GetContext(ctx, &m, "SELECT "+medicineColumns+medicineFrom+`
            WHERE lower(m.name) = lower(?) AND COALESCE(m.category_id, 0) = COALESCE(?, 0)
            ORDER BY m.id LIMIT 1`, name, categoryID)
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// Create inserts the medicine and, when it arrives with stock, the opening
// stock movement.
func (r *MedicineRepository) Create(ctx context.Context, m *domain.Medicine, userID *int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO medicines
                (name, generic_name, category_id, manufacturer, batch_number, purchase_price_per_carton, units_per_carton,
                 selling_price_full, selling_price_half, selling_price_single, quantity_in_stock, reorder_level, expiry_date,
                 status, created_at, updated_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.Name, m.GenericName, m.CategoryID, m.Manufacturer, m.BatchNumber, m.PurchasePricePerCarton, m.UnitsPerCarton,
			m.SellingPriceFull, m.SellingPriceHalf, m.SellingPriceSingle, m.QuantityInStock, m.ReorderLevel, m.ExpiryDate,
			m.Status, m.CreatedAt, m.UpdatedAt)
		if err != nil {
			return errors.Wrap(err, "insert medicine")
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return errors.Wrap(err, "insert medicine")
		}
		if m.QuantityInStock == 0 {
			return nil
		}
		return insertMovement(ctx, tx, domain.StockMovement{
			MedicineID:     m.ID,
			MovementType:   domain.MovementInitial,
			QuantityChange: m.QuantityInStock,
			QuantityAfter:  m.QuantityInStock,
			ReferenceType:  "medicine",
			ReferenceID:    &m.ID,
			Notes:          "opening stock",
			UserID:         userID,
			CreatedAt:      m.CreatedAt,
		})
	})
}

// Restock adds units to an existing medicine and refreshes its prices,
// reorder level and expiry from incoming, returning the resulting row. The
// carton size is never changed here.
func (r *MedicineRepository) Restock(ctx context.Context, id, units int64, incoming *domain.Medicine, userID *int64) (*domain.Medicine, error) {
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, err := stockOf(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE medicines SET
                quantity_in_stock = quantity_in_stock + ?,
                generic_name = CASE WHEN ? <> '' THEN ? ELSE generic_name END,
                manufacturer = CASE WHEN ? <> '' THEN ? ELSE manufacturer END,
                batch_number = CASE WHEN ? <> '' THEN ? ELSE batch_number END,
                purchase_price_per_carton = ?,
                selling_price_full = ?, selling_price_half = ?, selling_price_single = ?,
                reorder_level = ?, expiry_date = ?, status = ?, updated_at = ?
                WHERE id = ?`,
			units,
			incoming.GenericName, incoming.GenericName,
			incoming.Manufacturer, incoming.Manufacturer,
			incoming.BatchNumber, incoming.BatchNumber,
			incoming.PurchasePricePerCarton,
			incoming.SellingPriceFull, incoming.SellingPriceHalf, incoming.SellingPriceSingle,
			incoming.ReorderLevel, incoming.ExpiryDate, incoming.Status, incoming.UpdatedAt, id)
		if err != nil {
			return errors.Wrap(err, "restock medicine")
		}
		if units == 0 {
			return nil
		}
		return insertMovement(ctx, tx, domain.StockMovement{
			MedicineID:     id,
			MovementType:   domain.MovementRestock,
			QuantityChange: units,
			QuantityBefore: before,
			QuantityAfter:  before + units,
			ReferenceType:  "medicine",
			ReferenceID:    &id,
			Notes:          "duplicate entry merged into existing stock",
			UserID:         userID,
			CreatedAt:      incoming.UpdatedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update overwrites the editable fields. A changed quantity is recorded as an
// adjustment movement.
func (r *MedicineRepository) Update(ctx context.Context, m *domain.Medicine, userID *int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, err := stockOf(ctx, tx, m.ID)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE medicines SET
                name = ?, generic_name = ?, category_id = ?, manufacturer = ?, batch_number = ?,
                purchase_price_per_carton = ?, units_per_carton = ?,
                selling_price_full = ?, selling_price_half = ?, selling_price_single = ?,
                quantity_in_stock = ?, reorder_level = ?, expiry_date = ?, status = ?, updated_at = ?
                WHERE id = ?`,
			m.Name, m.GenericName, m.CategoryID, m.Manufacturer, m.BatchNumber,
			m.PurchasePricePerCarton, m.UnitsPerCarton,
			m.SellingPriceFull, m.SellingPriceHalf, m.SellingPriceSingle,
			m.QuantityInStock, m.ReorderLevel, m.ExpiryDate, m.Status, m.UpdatedAt, m.ID)
		if err != nil {
			return errors.Wrap(err, "update medicine")
		}
		if diff := m.QuantityInStock - before; diff != 0 {
			return insertMovement(ctx, tx, domain.StockMovement{
				MedicineID:     m.ID,
				MovementType:   domain.MovementAdjustment,
				QuantityChange: diff,
				QuantityBefore: before,
				QuantityAfter:  m.QuantityInStock,
				ReferenceType:  "medicine",
				ReferenceID:    &m.ID,
				Notes:          "quantity edited",
				UserID:         userID,
				CreatedAt:      m.UpdatedAt,
			})
		}
		return nil
	})
}

// Delete removes a medicine that has never been sold.
func (r *MedicineRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var sold int64
		if err := tx.GetContext(ctx, &sold, `SELECT COUNT(*) FROM sale_items WHERE medicine_id = ?`, id); err != nil {
			return errors.Wrap(err, "check medicine sales")
		}
		if sold > 0 {
			return errors.Wrap(domain.ErrConflict, "medicine has sales history; mark it inactive instead")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM medicines WHERE id = ?`, id)
		if err != nil {
			return errors.Wrap(err, "delete medicine")
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// AdjustStock applies a signed change and returns the new quantity.
func (r *MedicineRepository) AdjustStock(ctx context.Context, id, change int64, notes string, userID *int64, stamp string) (int64, error) {
	var after int64
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		before, err := stockOf(ctx, tx, id)
		if err != nil {
			return err
		}
		if change < 0 {
			err = decrementStock(ctx, tx, id, -change, stamp)
		} else {
			err = incrementStock(ctx, tx, id, change, stamp)
		}
		if err != nil {
			return err
		}
		after = before + change
		return insertMovement(ctx, tx, domain.StockMovement{
			MedicineID:     id,
			MovementType:   domain.MovementAdjustment,
			QuantityChange: change,
			QuantityBefore: before,
			QuantityAfter:  after,
			ReferenceType:  "adjustment",
			Notes:          notes,
			UserID:         userID,
			CreatedAt:      stamp,
		})
	})
	return after, err
}

// MarkExpired flags active medicines whose expiry date is before today.
func (r *MedicineRepository) MarkExpired(ctx context.Context, today, stamp string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE medicines SET status = 'expired', updated_at = ?
            WHERE status = 'active' AND expiry_date < ?`, stamp, today)
	if err != nil {
		return 0, errors.Wrap(err, "mark expired medicines")
	}
	return res.RowsAffected()
}

func (r *MedicineRepository) LowStock(ctx context.Context) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	err := r.db.SelectContext(ctx, &medicines, "SELECT "+medicineColumns+medicineFrom+`
            WHERE m.status <> 'inactive' AND m.quantity_in_stock <= m.reorder_level
            ORDER BY m.quantity_in_stock ASC, m.name ASC`)
	return medicines, errors.Wrap(err, "list low stock medicines")
}

// Expiring lists stocked medicines whose expiry date falls in [from, until].
func (r *MedicineRepository) Expiring(ctx context.Context, from, until string) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	err := r.db.SelectContext(ctx, &medicines, "SELECT "+medicineColumns+medicineFrom+`
            WHERE m.quantity_in_stock > 0 AND m.expiry_date >= ? AND m.expiry_date <= ?
            ORDER BY m.expiry_date ASC, m.name ASC`, from, until)
	return medicines, errors.Wrap(err, "list expiring medicines")
}

// Expired lists stocked medicines already past their expiry date.
func (r *MedicineRepository) Expired(ctx context.Context, today string) ([]domain.Medicine, error) {
	medicines := []domain.Medicine{}
	err := r.db.SelectContext(ctx, &medicines, "SELECT "+medicineColumns+medicineFrom+`
            WHERE m.quantity_in_stock > 0 AND m.expiry_date < ?
            ORDER BY m.expiry_date ASC, m.name ASC`, today)
	return medicines, errors.Wrap(err, "list expired medicines")
}
