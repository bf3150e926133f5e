package repository

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

type SaleRepository struct {
	db *sqlx.DB
}

func NewSaleRepository(db *sqlx.DB) *SaleRepository {
	return &SaleRepository{db: db}
}

const saleSelect = `SELECT s.id, s.invoice_number, s.customer_name, s.customer_phone, s.subtotal, s.discount, s.tax,
            s.total_amount, s.amount_paid, s.change_amount, s.payment_method, s.status, s.user_id, s.notes, s.created_at,
            COALESCE(NULLIF(u.full_name, ''), u.username) AS cashier_name,
            (SELECT COUNT(*) FROM sale_items si WHERE si.sale_id = s.id) AS item_count
            FROM sales s
            LEFT JOIN users u ON u.id = s.user_id`

// Create stores the sale, its items and the stock decrements in a single
// transaction. Any line without enough stock aborts the whole sale.
func (r *SaleRepository) Create(ctx context.Context, sale *domain.Sale, items []domain.SaleItem) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `INSERT INTO sales
                (invoice_number, customer_name, customer_phone, subtotal, discount, tax, total_amount, amount_paid,
                 change_amount, payment_method, status, user_id, notes, created_at)
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sale.InvoiceNumber, sale.CustomerName, sale.CustomerPhone, sale.Subtotal, sale.Discount, sale.Tax,
			sale.TotalAmount, sale.AmountPaid, sale.ChangeAmount, sale.PaymentMethod, sale.Status, sale.UserID,
			sale.Notes, sale.CreatedAt)
		if isUniqueViolation(err) {
			return errors.Wrap(domain.ErrConflict, "invoice number already used")
		}
		if err != nil {
			return errors.Wrap(err, "insert sale")
		}
		if sale.ID, err = res.LastInsertId(); err != nil {
			return errors.Wrap(err, "insert sale")
		}

		for i := range items {
			item := &items[i]
			item.SaleID = sale.ID
			res, err := tx.ExecContext(ctx, `INSERT INTO sale_items
                    (sale_id, medicine_id, unit_type, quantity, units, unit_price, unit_cost, total_price)
                    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				item.SaleID, item.MedicineID, item.UnitType, item.Quantity, item.Units, item.UnitPrice, item.UnitCost, item.TotalPrice)
			if err != nil {
				return errors.Wrap(err, "insert sale item")
			}
			if item.ID, err = res.LastInsertId(); err != nil {
				return errors.Wrap(err, "insert sale item")
			}
		}

		needed := unitsByMedicine(items)
		for _, medicineID := range sortedKeys(needed) {
			units := needed[medicineID]
			before, err := stockOf(ctx, tx, medicineID)
			if err != nil {
				return errors.Wrapf(err, "medicine %d", medicineID)
			}
			if err := decrementStock(ctx, tx, medicineID, units, sale.CreatedAt); err != nil {
				return errors.Wrapf(err, "medicine %d", medicineID)
			}
			if err := insertMovement(ctx, tx, domain.StockMovement{
				MedicineID:     medicineID,
				MovementType:   domain.MovementSale,
				QuantityChange: -units,
				QuantityBefore: before,
				QuantityAfter:  before - units,
				ReferenceType:  "sale",
				ReferenceID:    &sale.ID,
				Notes:          sale.InvoiceNumber,
				UserID:         sale.UserID,
				CreatedAt:      sale.CreatedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SaleRepository) Get(ctx context.Context, id int64) (*domain.SaleDetail, error) {
	var detail domain.SaleDetail
	if err := r.db.GetContext(ctx, &detail.Sale, saleSelect+" WHERE s.id = ?", id); err != nil {
		return nil, notFound(err)
	}
	items, err := r.Items(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	detail.Items = items[id]
	if detail.Items == nil {
		detail.Items = []domain.SaleItem{}
	}
	return &detail, nil
}

// Items loads the line items of the given sales keyed by sale id.
func (r *SaleRepository) Items(ctx context.Context, saleIDs []int64) (map[int64][]domain.SaleItem, error) {
	bySale := make(map[int64][]domain.SaleItem)
	if len(saleIDs) == 0 {
		return bySale, nil
	}
	query, args, err := sqlx.In(`SELECT si.id, si.sale_id, si.medicine_id, m.name AS medicine_name, si.unit_type, si.quantity,
                si.units, si.unit_price, si.unit_cost, si.total_price
                FROM sale_items si
                JOIN medicines m ON m.id = si.medicine_id
                WHERE si.sale_id IN (?)
                ORDER BY si.sale_id, si.id`, saleIDs)
	if err != nil {
		return nil, errors.Wrap(err, "prepare sale items query")
	}
	var rows []domain.SaleItem
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "load sale items")
	}
	for _, row := range rows {
		bySale[row.SaleID] = append(bySale[row.SaleID], row)
	}
	return bySale, nil
}

func (r *SaleRepository) List(ctx context.Context, f domain.SaleFilter) ([]domain.Sale, int64, error) {
	var (
		conditions []string
		args       []any
	)
	if f.StartDate != "" {
		conditions = append(conditions, "date(s.created_at) >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conditions = append(conditions, "date(s.created_at) <= ?")
		args = append(args, f.EndDate)
	}
	if f.UserID > 0 {
		conditions = append(conditions, "s.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.PaymentMethod != "" {
		conditions = append(conditions, "s.payment_method = ?")
		args = append(args, f.PaymentMethod)
	}
	if f.Status != "" {
		conditions = append(conditions, "s.status = ?")
		args = append(args, f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		conditions = append(conditions, "(s.invoice_number LIKE ? OR s.customer_name LIKE ? OR s.customer_phone LIKE ?)")
		args = append(args, like, like, like)
	}
	where := whereClause(conditions)

	var total int64
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM sales s"+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count sales")
	}

	limit, offset := pageArgs(f.Limit, f.Offset)
	sales := []domain.Sale{}
	err := r.db.SelectContext(ctx, &sales, saleSelect+where+" ORDER BY s.created_at DESC, s.id DESC LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list sales")
	}
	return sales, total, nil
}

// Void marks a completed sale as voided and puts its units back on the shelf.
func (r *SaleRepository) Void(ctx context.Context, id int64, userID *int64, reason, stamp string) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var sale domain.Sale
		if err := tx.GetContext(ctx, &sale, `SELECT id, invoice_number, status FROM sales WHERE id = ?`, id); err != nil {
			return notFound(err)
		}
		if sale.Status == domain.SaleVoided {
			return errors.Wrap(domain.ErrConflict, "sale is already voided")
		}
		note := "voided"
		if reason != "" {
			note += ": " + reason
		}
		notes := sale.InvoiceNumber + " " + note
		if _, err := tx.ExecContext(ctx, `UPDATE sales SET status = 'voided',
                notes = CASE WHEN notes = '' THEN ? ELSE notes || ' | ' || ? END WHERE id = ?`, note, note, id); err != nil {
			return errors.Wrap(err, "void sale")
		}

		var items []domain.SaleItem
		if err := tx.SelectContext(ctx, &items, `SELECT medicine_id, units FROM sale_items WHERE sale_id = ?`, id); err != nil {
			return errors.Wrap(err, "load sale items")
		}
		units := unitsByMedicine(items)
		for _, medicineID := range sortedKeys(units) {
			before, err := stockOf(ctx, tx, medicineID)
			if err != nil {
				return err
			}
			if err := incrementStock(ctx, tx, medicineID, units[medicineID], stamp); err != nil {
				return err
			}
			if err := insertMovement(ctx, tx, domain.StockMovement{
				MedicineID:     medicineID,
				MovementType:   domain.MovementVoid,
				QuantityChange: units[medicineID],
				QuantityBefore: before,
				QuantityAfter:  before + units[medicineID],
				ReferenceType:  "sale",
				ReferenceID:    &id,
				Notes:          notes,
				UserID:         userID,
				CreatedAt:      stamp,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func unitsByMedicine(items []domain.SaleItem) map[int64]int64 {
	units := make(map[int64]int64)
	for _, item := range items {
		units[item.MedicineID] += item.Units
	}
	return units
}

func sortedKeys(m map[int64]int64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
