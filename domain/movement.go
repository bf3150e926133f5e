package domain

const (
	MovementInitial          = "initial"
	MovementRestock          = "restock"
	MovementPurchase         = "purchase"
	MovementPurchaseReversal = "purchase_reversal"
	MovementSale             = "sale"
	MovementVoid             = "void"
	MovementAdjustment       = "adjustment"
)

// StockMovement records one change to a medicine's quantity_in_stock.
type StockMovement struct {
	ID             int64  `db:"id" json:"id"`
	MedicineID     int64  `db:"medicine_id" json:"medicine_id"`
	MedicineName   string `db:"medicine_name" json:"medicine_name"`
	MovementType   string `db:"movement_type" json:"movement_type"`
	QuantityChange int64  `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int64  `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int64  `db:"quantity_after" json:"quantity_after"`
	ReferenceType  string `db:"reference_type" json:"reference_type"`
	ReferenceID    *int64 `db:"reference_id" json:"reference_id"`
	Notes          string `db:"notes" json:"notes"`
	UserID         *int64 `db:"user_id" json:"user_id"`
	CreatedAt      string `db:"created_at" json:"created_at"`
}

type MovementFilter struct {
	MedicineID   int64
	MovementType string
	StartDate    string
	EndDate      string
	Limit        int
}
