package domain

const (
	MedicineActive   = "active"
	MedicineInactive = "inactive"
	MedicineExpired  = "expired"
)

const (
	UnitFull   = "full"
	UnitHalf   = "half"
	UnitSingle = "single"
)

type Medicine struct {
	ID                     int64   `db:"id" json:"id"`
	Name                   string  `db:"name" json:"name"`
	GenericName            string  `db:"generic_name" json:"generic_name"`
	CategoryID             *int64  `db:"category_id" json:"category_id"`
	CategoryName           *string `db:"category_name" json:"category_name,omitempty"`
	Manufacturer           string  `db:"manufacturer" json:"manufacturer"`
	BatchNumber            string  `db:"batch_number" json:"batch_number"`
	PurchasePricePerCarton float64 `db:"purchase_price_per_carton" json:"purchase_price_per_carton"`
	UnitsPerCarton         int64   `db:"units_per_carton" json:"units_per_carton"`
	SellingPriceFull       float64 `db:"selling_price_full" json:"selling_price_full"`
	SellingPriceHalf       float64 `db:"selling_price_half" json:"selling_price_half"`
	SellingPriceSingle     float64 `db:"selling_price_single" json:"selling_price_single"`
	QuantityInStock        int64   `db:"quantity_in_stock" json:"quantity_in_stock"`
	ReorderLevel           int64   `db:"reorder_level" json:"reorder_level"`
	ExpiryDate             string  `db:"expiry_date" json:"expiry_date"`
	Status                 string  `db:"status" json:"status"`
	CreatedAt              string  `db:"created_at" json:"created_at"`
	UpdatedAt              string  `db:"updated_at" json:"updated_at"`
}

// MedicineWithStats is a medicine row joined with its lifetime sales figures.
type MedicineWithStats struct {
	Medicine
	TotalSold    int64   `db:"total_sold" json:"total_sold"`
	TotalRevenue float64 `db:"total_revenue" json:"total_revenue"`
	LastSoldAt   *string `db:"last_sold_at" json:"last_sold_at"`
}

// UnitsPer returns how many single units one item of the given unit type
// removes from stock. Zero means the medicine cannot be sold that way.
func (m Medicine) UnitsPer(unitType string) int64 {
	switch unitType {
	case UnitFull:
		return m.UnitsPerCarton
	case UnitHalf:
		return m.UnitsPerCarton / 2
	case UnitSingle:
		return 1
	}
	return 0
}

// PriceFor returns the selling price of one item of the given unit type.
func (m Medicine) PriceFor(unitType string) float64 {
	switch unitType {
	case UnitFull:
		return m.SellingPriceFull
	case UnitHalf:
		return m.SellingPriceHalf
	case UnitSingle:
		return m.SellingPriceSingle
	}
	return 0
}

// UnitCost is the purchase cost of a single unit.
func (m Medicine) UnitCost() float64 {
	if m.UnitsPerCarton <= 0 {
		return 0
	}
	return m.PurchasePricePerCarton / float64(m.UnitsPerCarton)
}

type MedicineFilter struct {
	Search         string
	CategoryID     int64
	Status         string
	LowStock       bool
	ExpiringBefore string
	SortBy         string
	SortDesc       bool
	Limit          int
	Offset         int
}
