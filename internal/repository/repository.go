// Package repository holds the sqlx-backed data access for every resource.
// All statements use bound parameters; only whitelisted column names are
// ever concatenated into SQL.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pharmapos/m/domain"
)

const defaultPageSize = 50

const medicineColumns = `m.id, m.name, m.generic_name, m.category_id, c.name AS category_name, m.manufacturer, m.batch_number,
       m.purchase_price_per_carton, m.units_per_carton, m.selling_price_full, m.selling_price_half, m.selling_price_single,
       m.quantity_in_stock, m.reorder_level, m.expiry_date, m.status, m.created_at, m.updated_at`

const medicineFrom = ` FROM medicines m LEFT JOIN medicine_categories c ON c.id = m.category_id`

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}

func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var serr *sqlite.Error
	return errors.As(err, &serr) && serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func insertMovement(ctx context.Context, q sqlx.ExecerContext, m domain.StockMovement) error {
	_, err := q.ExecContext(ctx, `INSERT INTO stock_movements
            (medicine_id, movement_type, quantity_change, quantity_before, quantity_after, reference_type, reference_id, notes, user_id, created_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MedicineID, m.MovementType, m.QuantityChange, m.QuantityBefore, m.QuantityAfter,
		m.ReferenceType, m.ReferenceID, m.Notes, m.UserID, m.CreatedAt)
	return errors.Wrap(err, "record stock movement")
}

func stockOf(ctx context.Context, q sqlx.QueryerContext, medicineID int64) (int64, error) {
	var qty int64
	err := sqlx.GetContext(ctx, q, &qty, `SELECT quantity_in_stock FROM medicines WHERE id = ?`, medicineID)
	return qty, notFound(err)
}

// decrementStock removes units only when enough stock remains.
func decrementStock(ctx context.Context, q sqlx.ExecerContext, medicineID, units int64, stamp string) error {
	res, err := q.ExecContext(ctx, `UPDATE medicines SET quantity_in_stock = quantity_in_stock - ?, updated_at = ?
            WHERE id = ? AND quantity_in_stock >= ?`, units, stamp, medicineID, units)
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "decrement stock")
	}
	if affected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

func incrementStock(ctx context.Context, q sqlx.ExecerContext, medicineID, units int64, stamp string) error {
	res, err := q.ExecContext(ctx, `UPDATE medicines SET quantity_in_stock = quantity_in_stock + ?, updated_at = ? WHERE id = ?`, units, stamp, medicineID)
	if err != nil {
		return errors.Wrap(err, "increment stock")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "commit transaction")
}
