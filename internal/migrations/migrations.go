package migrations

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS medicine_categories (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE COLLATE NOCASE,
            description TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            generic_name TEXT NOT NULL DEFAULT '',
            category_id INTEGER REFERENCES medicine_categories(id) ON DELETE SET NULL,
            manufacturer TEXT NOT NULL DEFAULT '',
            batch_number TEXT NOT NULL DEFAULT '',
            purchase_price_per_carton REAL NOT NULL DEFAULT 0 CHECK (purchase_price_per_carton >= 0),
            units_per_carton INTEGER NOT NULL DEFAULT 1 CHECK (units_per_carton > 0),
            selling_price_full REAL NOT NULL DEFAULT 0 CHECK (selling_price_full >= 0),
            selling_price_half REAL NOT NULL DEFAULT 0 CHECK (selling_price_half >= 0),
            selling_price_single REAL NOT NULL DEFAULT 0 CHECK (selling_price_single >= 0),
            quantity_in_stock INTEGER NOT NULL DEFAULT 0 CHECK (quantity_in_stock >= 0),
            reorder_level INTEGER NOT NULL DEFAULT 10 CHECK (reorder_level >= 0),
            expiry_date TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'inactive', 'expired')),
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_name ON medicines(name COLLATE NOCASE);`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_category ON medicines(category_id);`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_expiry ON medicines(expiry_date);`,
	`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE COLLATE NOCASE,
            full_name TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            password TEXT NOT NULL,
            role TEXT NOT NULL CHECK (role IN ('admin', 'pharmacist', 'cashier')),
            is_active INTEGER NOT NULL DEFAULT 1,
            last_login TEXT,
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
            updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS sales (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            invoice_number TEXT NOT NULL UNIQUE,
            customer_name TEXT NOT NULL DEFAULT '',
            customer_phone TEXT NOT NULL DEFAULT '',
            subtotal REAL NOT NULL,
            discount REAL NOT NULL DEFAULT 0 CHECK (discount >= 0),
            tax REAL NOT NULL DEFAULT 0 CHECK (tax >= 0),
            total_amount REAL NOT NULL CHECK (total_amount >= 0),
            amount_paid REAL NOT NULL,
            change_amount REAL NOT NULL DEFAULT 0,
            payment_method TEXT NOT NULL DEFAULT 'cash' CHECK (payment_method IN ('cash', 'card', 'mobile', 'insurance')),
            status TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('completed', 'voided')),
            user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
            notes TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            sale_id INTEGER NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id),
            unit_type TEXT NOT NULL CHECK (unit_type IN ('full', 'half', 'single')),
            quantity INTEGER NOT NULL CHECK (quantity > 0),
            units INTEGER NOT NULL CHECK (units > 0),
            unit_price REAL NOT NULL,
            unit_cost REAL NOT NULL DEFAULT 0,
            total_price REAL NOT NULL
        );`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id);`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_medicine ON sale_items(medicine_id);`,
	`CREATE TABLE IF NOT EXISTS purchases (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
            supplier_name TEXT NOT NULL DEFAULT '',
            invoice_number TEXT NOT NULL DEFAULT '',
            quantity_cartons INTEGER NOT NULL CHECK (quantity_cartons > 0),
            units_received INTEGER NOT NULL,
            price_per_carton REAL NOT NULL CHECK (price_per_carton >= 0),
            total_cost REAL NOT NULL,
            purchase_date TEXT NOT NULL,
            expiry_date TEXT,
            user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
            notes TEXT NOT NULL DEFAULT '',
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_purchases_medicine ON purchases(medicine_id);`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            medicine_id INTEGER NOT NULL REFERENCES medicines(id) ON DELETE CASCADE,
            movement_type TEXT NOT NULL CHECK (movement_type IN ('initial', 'restock', 'purchase', 'purchase_reversal', 'sale', 'void', 'adjustment')),
            quantity_change INTEGER NOT NULL,
            quantity_before INTEGER NOT NULL,
            quantity_after INTEGER NOT NULL,
            reference_type TEXT NOT NULL DEFAULT '',
            reference_id INTEGER,
            notes TEXT NOT NULL DEFAULT '',
            user_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
            created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_medicine ON stock_movements(medicine_id, created_at);`,
}

// Run creates the database schema required for the POS backend.
func Run(db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return errors.Wrapf(err, "migration %d failed", i)
		}
	}
	return nil
}
