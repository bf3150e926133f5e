// Package seed bulk-loads a medicine catalog from CSV.
package seed

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"pharmapos/m/domain"
)

// catalogRow is one line of the catalog file. Numbers stay strings so a
// malformed cell skips its row instead of failing the whole file.
type catalogRow struct {
	Name                   string `csv:"name"`
	GenericName            string `csv:"generic_name"`
	Category               string `csv:"category"`
	Manufacturer           string `csv:"manufacturer"`
	PurchasePricePerCarton string `csv:"purchase_price_per_carton"`
	UnitsPerCarton         string `csv:"units_per_carton"`
	SellingPriceFull       string `csv:"selling_price_full"`
	SellingPriceHalf       string `csv:"selling_price_half"`
	SellingPriceSingle     string `csv:"selling_price_single"`
	QuantityInStock        string `csv:"quantity_in_stock"`
	ReorderLevel           string `csv:"reorder_level"`
	ExpiryDate             string `csv:"expiry_date"`
}

// LoadMedicines ingests the CSV at csvPath, skipping medicines that already
// exist under the same category.
func LoadMedicines(ctx context.Context, db *sqlx.DB, csvPath string, log *zap.Logger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, errors.Wrapf(err, "open medicine catalog %s", csvPath)
	}
	defer file.Close()
	return Load(ctx, db, file, time.Now(), log)
}

// Load reads catalog rows from r and inserts them in a single transaction.
// It returns the number of medicines inserted.
func Load(ctx context.Context, db *sqlx.DB, r io.Reader, now time.Time, log *zap.Logger) (int, error) {
	var rows []catalogRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return 0, errors.Wrap(err, "parse medicine catalog")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin seed transaction")
	}
	defer tx.Rollback()

	today := now.Format(domain.DateLayout)
	stamp := now.Format(domain.TimestampLayout)
	categories := map[string]*int64{}
	inserted := 0

	for i, row := range rows {
		line := i + 2
		m, err := row.medicine(today, stamp)
		if err != nil {
			log.Warn("skipping catalog row", zap.Int("line", line), zap.Error(err))
			continue
		}

		key := strings.ToLower(strings.TrimSpace(row.Category))
		categoryID, ok := categories[key]
		if !ok {
			if categoryID, err = ensureCategory(ctx, tx, strings.TrimSpace(row.Category), stamp); err != nil {
				return inserted, err
			}
			categories[key] = categoryID
		}
		m.CategoryID = categoryID

		var exists int
		err = tx.GetContext(ctx, &exists, `SELECT COUNT(1) FROM medicines
                WHERE lower(name) = lower(?) AND COALESCE(category_id, 0) = COALESCE(?, 0)`, m.Name, m.CategoryID)
		if err != nil {
			return inserted, errors.Wrap(err, "look up medicine")
		}
		if exists > 0 {
			continue
		}
		if err := insertMedicine(ctx, tx, m); err != nil {
			return inserted, errors.Wrapf(err, "insert %s (line %d)", m.Name, line)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit medicine seed")
	}
	log.Info("seeded medicine catalog", zap.Int("rows", len(rows)), zap.Int("inserted", inserted))
	return inserted, nil
}

func (row catalogRow) medicine(today, stamp string) (*domain.Medicine, error) {
	m := &domain.Medicine{
		Name:         strings.TrimSpace(row.Name),
		GenericName:  strings.TrimSpace(row.GenericName),
		Manufacturer: strings.TrimSpace(row.Manufacturer),
		ExpiryDate:   strings.TrimSpace(row.ExpiryDate),
		Status:       domain.MedicineActive,
		CreatedAt:    stamp,
		UpdatedAt:    stamp,
	}
	if m.Name == "" {
		return nil, errors.New("missing name")
	}
	if _, err := time.Parse(domain.DateLayout, m.ExpiryDate); err != nil {
		return nil, errors.Errorf("bad expiry date %q", row.ExpiryDate)
	}
	if m.ExpiryDate < today {
		m.Status = domain.MedicineExpired
	}

	var err error
	floats := []struct {
		cell string
		dst  *float64
	}{
		{row.PurchasePricePerCarton, &m.PurchasePricePerCarton},
		{row.SellingPriceFull, &m.SellingPriceFull},
		{row.SellingPriceHalf, &m.SellingPriceHalf},
		{row.SellingPriceSingle, &m.SellingPriceSingle},
	}
	for _, f := range floats {
		if *f.dst, err = number(f.cell, cast.ToFloat64E); err != nil {
			return nil, err
		}
		if *f.dst < 0 {
			return nil, errors.Errorf("negative price %q", f.cell)
		}
	}
	ints := []struct {
		cell string
		dst  *int64
	}{
		{row.UnitsPerCarton, &m.UnitsPerCarton},
		{row.QuantityInStock, &m.QuantityInStock},
		{row.ReorderLevel, &m.ReorderLevel},
	}
	for _, f := range ints {
		if *f.dst, err = number(f.cell, cast.ToInt64E); err != nil {
			return nil, err
		}
		if *f.dst < 0 {
			return nil, errors.Errorf("negative quantity %q", f.cell)
		}
	}
	if m.UnitsPerCarton == 0 {
		m.UnitsPerCarton = 1
	}
	if m.SellingPriceFull == 0 && m.SellingPriceHalf == 0 && m.SellingPriceSingle == 0 {
		return nil, errors.New("no selling price")
	}
	if m.SellingPriceHalf > 0 && m.UnitsPerCarton < 2 {
		m.SellingPriceHalf = 0
	}
	return m, nil
}

func number[T float64 | int64](cell string, conv func(any) (T, error)) (T, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0, nil
	}
	v, err := conv(cell)
	if err != nil {
		return 0, errors.Errorf("bad number %q", cell)
	}
	return v, nil
}

func ensureCategory(ctx context.Context, tx *sqlx.Tx, name, stamp string) (*int64, error) {
	if name == "" {
		return nil, nil
	}
	var id int64
	err := tx.GetContext(ctx, &id, `SELECT id FROM medicine_categories WHERE name = ?`, name)
	if err == nil {
		return &id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(err, "look up category %s", name)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO medicine_categories (name, created_at) VALUES (?, ?)`, name, stamp)
	if err != nil {
		return nil, errors.Wrapf(err, "create category %s", name)
	}
	if id, err = res.LastInsertId(); err != nil {
		return nil, errors.Wrapf(err, "create category %s", name)
	}
	return &id, nil
}

func insertMedicine(ctx context.Context, tx *sqlx.Tx, m *domain.Medicine) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO medicines
            (name, generic_name, category_id, manufacturer, purchase_price_per_carton, units_per_carton,
             selling_price_full, selling_price_half, selling_price_single, quantity_in_stock, reorder_level,
             expiry_date, status, created_at, updated_at)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.GenericName, m.CategoryID, m.Manufacturer, m.PurchasePricePerCarton, m.UnitsPerCarton,
		m.SellingPriceFull, m.SellingPriceHalf, m.SellingPriceSingle, m.QuantityInStock, m.ReorderLevel,
		m.ExpiryDate, m.Status, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return err
	}
	if m.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	if m.QuantityInStock == 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO stock_movements
            (medicine_id, movement_type, quantity_change, quantity_before, quantity_after, reference_type, reference_id, notes, created_at)
            VALUES (?, ?, ?, 0, ?, 'medicine', ?, 'catalog seed', ?)`,
		m.ID, domain.MovementInitial, m.QuantityInStock, m.QuantityInStock, m.ID, m.CreatedAt)
	return err
}
