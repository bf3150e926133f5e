package domain

type DateRange struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type SalesSummary struct {
	TotalRevenue       float64 `db:"total_revenue" json:"total_revenue"`
	GrossSales         float64 `db:"gross_sales" json:"gross_sales"`
	TotalTransactions  int64   `db:"total_transactions" json:"total_transactions"`
	AverageTransaction float64 `db:"average_transaction" json:"average_transaction"`
	TotalItemsSold     int64   `db:"total_items_sold" json:"total_items_sold"`
	TotalUnitsSold     int64   `db:"total_units_sold" json:"total_units_sold"`
	TotalDiscount      float64 `db:"total_discount" json:"total_discount"`
	TotalTax           float64 `db:"total_tax" json:"total_tax"`
	TotalCost          float64 `db:"total_cost" json:"total_cost"`
	GrossProfit        float64 `db:"gross_profit" json:"gross_profit"`
	ProfitMargin       float64 `db:"-" json:"profit_margin"`
}

type DailySales struct {
	Date         string  `db:"date" json:"date"`
	Revenue      float64 `db:"revenue" json:"revenue"`
	Transactions int64   `db:"transactions" json:"transactions"`
	Profit       float64 `db:"profit" json:"profit"`
}

type MedicineSales struct {
	MedicineID   int64   `db:"medicine_id" json:"medicine_id"`
	Name         string  `db:"name" json:"name"`
	QuantitySold int64   `db:"quantity_sold" json:"quantity_sold"`
	UnitsSold    int64   `db:"units_sold" json:"units_sold"`
	Revenue      float64 `db:"revenue" json:"revenue"`
	Profit       float64 `db:"profit" json:"profit"`
}

type CategorySales struct {
	CategoryID   *int64  `db:"category_id" json:"category_id"`
	Category     string  `db:"category" json:"category"`
	QuantitySold int64   `db:"quantity_sold" json:"quantity_sold"`
	Revenue      float64 `db:"revenue" json:"revenue"`
}

type PaymentMethodSales struct {
	PaymentMethod string  `db:"payment_method" json:"payment_method"`
	Transactions  int64   `db:"transactions" json:"transactions"`
	Revenue       float64 `db:"revenue" json:"revenue"`
}

type HourlySales struct {
	Hour         int     `db:"hour" json:"hour"`
	Transactions int64   `db:"transactions" json:"transactions"`
	Revenue      float64 `db:"revenue" json:"revenue"`
}

type CashierSales struct {
	UserID       *int64  `db:"user_id" json:"user_id"`
	Cashier      string  `db:"cashier" json:"cashier"`
	Transactions int64   `db:"transactions" json:"transactions"`
	Revenue      float64 `db:"revenue" json:"revenue"`
}

type SalesReport struct {
	Range           DateRange            `json:"range"`
	Summary         SalesSummary         `json:"summary"`
	Daily           []DailySales         `json:"daily"`
	TopMedicines    []MedicineSales      `json:"top_medicines"`
	ByCategory      []CategorySales      `json:"by_category"`
	ByPaymentMethod []PaymentMethodSales `json:"by_payment_method"`
	Hourly          []HourlySales        `json:"hourly"`
	ByCashier       []CashierSales       `json:"by_cashier"`
}

// MedicineActivity is the per-medicine input to inventory analytics.
type MedicineActivity struct {
	MedicineID             int64   `db:"medicine_id" json:"medicine_id"`
	Name                   string  `db:"name" json:"name"`
	QuantityInStock        int64   `db:"quantity_in_stock" json:"quantity_in_stock"`
	ReorderLevel           int64   `db:"reorder_level" json:"reorder_level"`
	PurchasePricePerCarton float64 `db:"purchase_price_per_carton" json:"-"`
	UnitsPerCarton         int64   `db:"units_per_carton" json:"-"`
	Revenue                float64 `db:"revenue" json:"revenue"`
	UnitsSold              int64   `db:"units_sold" json:"units_sold"`
	LastSoldAt             *string `db:"last_sold_at" json:"last_sold_at"`
}

// DailyUnits is one (medicine, day) point of the units-sold series.
type DailyUnits struct {
	MedicineID int64  `db:"medicine_id"`
	Date       string `db:"date"`
	Units      int64  `db:"units"`
}

type ABCItem struct {
	MedicineID      int64   `json:"medicine_id"`
	Name            string  `json:"name"`
	Revenue         float64 `json:"revenue"`
	RevenueShare    float64 `json:"revenue_share"`
	CumulativeShare float64 `json:"cumulative_share"`
	Class           string  `json:"class"`
	QuantityInStock int64   `json:"quantity_in_stock"`
}

type ABCClassSummary struct {
	Class        string  `json:"class"`
	Count        int     `json:"count"`
	Revenue      float64 `json:"revenue"`
	RevenueShare float64 `json:"revenue_share"`
}

type ABCAnalysis struct {
	Items        []ABCItem         `json:"items"`
	Classes      []ABCClassSummary `json:"classes"`
	TotalRevenue float64           `json:"total_revenue"`
}

type ReorderForecast struct {
	MedicineID        int64    `json:"medicine_id"`
	Name              string   `json:"name"`
	QuantityInStock   int64    `json:"quantity_in_stock"`
	ReorderLevel      int64    `json:"reorder_level"`
	AvgDailyUnits     float64  `json:"avg_daily_units"`
	StdDevDailyUnits  float64  `json:"std_dev_daily_units"`
	SafetyStock       float64  `json:"safety_stock"`
	ReorderPoint      float64  `json:"reorder_point"`
	DaysOfStock       *float64 `json:"days_of_stock"`
	SuggestedQuantity int64    `json:"suggested_quantity"`
	NeedsReorder      bool     `json:"needs_reorder"`
}

type DeadStockItem struct {
	MedicineID        int64   `json:"medicine_id"`
	Name              string  `json:"name"`
	QuantityInStock   int64   `json:"quantity_in_stock"`
	TiedUpValue       float64 `json:"tied_up_value"`
	LastSoldAt        *string `json:"last_sold_at"`
	DaysSinceLastSale *int    `json:"days_since_last_sale"`
}

type InventoryReport struct {
	WindowDays int               `json:"window_days"`
	ABC        ABCAnalysis       `json:"abc"`
	Reorder    []ReorderForecast `json:"reorder"`
	DeadStock  []DeadStockItem   `json:"dead_stock"`
	Expiring   []Medicine        `json:"expiring"`
	Expired    []Medicine        `json:"expired"`
	LowStock   []Medicine        `json:"low_stock"`
}

type DashboardStats struct {
	TodayRevenue         float64 `json:"today_revenue"`
	TodayTransactions    int64   `json:"today_transactions"`
	TodayProfit          float64 `json:"today_profit"`
	MonthRevenue         float64 `json:"month_revenue"`
	TotalMedicines       int64   `json:"total_medicines"`
	ActiveMedicines      int64   `json:"active_medicines"`
	LowStockCount        int64   `json:"low_stock_count"`
	ExpiringSoonCount    int64   `json:"expiring_soon_count"`
	ExpiredCount         int64   `json:"expired_count"`
	InventoryCostValue   float64 `json:"inventory_cost_value"`
	InventoryRetailValue float64 `json:"inventory_retail_value"`
	RecentSales          []Sale  `json:"recent_sales"`
}
