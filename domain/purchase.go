package domain

type Purchase struct {
	ID              int64   `db:"id" json:"id"`
	MedicineID      int64   `db:"medicine_id" json:"medicine_id"`
	MedicineName    string  `db:"medicine_name" json:"medicine_name"`
	SupplierName    string  `db:"supplier_name" json:"supplier_name"`
	InvoiceNumber   string  `db:"invoice_number" json:"invoice_number"`
	QuantityCartons int64   `db:"quantity_cartons" json:"quantity_cartons"`
	UnitsReceived   int64   `db:"units_received" json:"units_received"`
	PricePerCarton  float64 `db:"price_per_carton" json:"price_per_carton"`
	TotalCost       float64 `db:"total_cost" json:"total_cost"`
	PurchaseDate    string  `db:"purchase_date" json:"purchase_date"`
	ExpiryDate      *string `db:"expiry_date" json:"expiry_date"`
	UserID          *int64  `db:"user_id" json:"user_id"`
	Notes           string  `db:"notes" json:"notes"`
	CreatedAt       string  `db:"created_at" json:"created_at"`
}

type PurchaseFilter struct {
	MedicineID int64
	Supplier   string
	StartDate  string
	EndDate    string
	Limit      int
	Offset     int
}
