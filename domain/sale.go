package domain

const (
	SaleCompleted = "completed"
	SaleVoided    = "voided"
)

const (
	PaymentCash      = "cash"
	PaymentCard      = "card"
	PaymentMobile    = "mobile"
	PaymentInsurance = "insurance"
)

type Sale struct {
	ID            int64   `db:"id" json:"id"`
	InvoiceNumber string  `db:"invoice_number" json:"invoice_number"`
	CustomerName  string  `db:"customer_name" json:"customer_name"`
	CustomerPhone string  `db:"customer_phone" json:"customer_phone"`
	Subtotal      float64 `db:"subtotal" json:"subtotal"`
	Discount      float64 `db:"discount" json:"discount"`
	Tax           float64 `db:"tax" json:"tax"`
	TotalAmount   float64 `db:"total_amount" json:"total_amount"`
	AmountPaid    float64 `db:"amount_paid" json:"amount_paid"`
	ChangeAmount  float64 `db:"change_amount" json:"change_amount"`
	PaymentMethod string  `db:"payment_method" json:"payment_method"`
	Status        string  `db:"status" json:"status"`
	UserID        *int64  `db:"user_id" json:"user_id"`
	CashierName   *string `db:"cashier_name" json:"cashier_name,omitempty"`
	ItemCount     int64   `db:"item_count" json:"item_count"`
	Notes         string  `db:"notes" json:"notes"`
	CreatedAt     string  `db:"created_at" json:"created_at"`
}

type SaleItem struct {
	ID           int64   `db:"id" json:"id"`
	SaleID       int64   `db:"sale_id" json:"sale_id"`
	MedicineID   int64   `db:"medicine_id" json:"medicine_id"`
	MedicineName string  `db:"medicine_name" json:"medicine_name"`
	UnitType     string  `db:"unit_type" json:"unit_type"`
	Quantity     int64   `db:"quantity" json:"quantity"`
	Units        int64   `db:"units" json:"units"`
	UnitPrice    float64 `db:"unit_price" json:"unit_price"`
	UnitCost     float64 `db:"unit_cost" json:"unit_cost"`
	TotalPrice   float64 `db:"total_price" json:"total_price"`
}

type SaleDetail struct {
	Sale
	Items []SaleItem `json:"items"`
}

type SaleFilter struct {
	StartDate     string
	EndDate       string
	UserID        int64
	PaymentMethod string
	Status        string
	Search        string
	Limit         int
	Offset        int
}

func ValidUnitType(unitType string) bool {
	switch unitType {
	case UnitFull, UnitHalf, UnitSingle:
		return true
	}
	return false
}

func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentMobile, PaymentInsurance:
		return true
	}
	return false
}
