package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

// completedIn restricts s (sales) to completed sales inside [start, end].
const completedIn = ` s.status = 'completed' AND date(s.created_at) >= ? AND date(s.created_at) <= ?`

type AnalyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

func (r *AnalyticsRepository) Summary(ctx context.Context, start, end string) (domain.SalesSummary, error) {
	var summary domain.SalesSummary
	err := r.db.GetContext(ctx, &summary, `SELECT
            COALESCE(SUM(s.total_amount), 0.0) AS total_revenue,
            COALESCE(SUM(s.subtotal), 0.0) AS gross_sales,
            COUNT(*) AS total_transactions,
            COALESCE(AVG(s.total_amount), 0.0) AS average_transaction,
            COALESCE(SUM(s.discount), 0.0) AS total_discount,
            COALESCE(SUM(s.tax), 0.0) AS total_tax
            FROM sales s WHERE`+completedIn, start, end)
	if err != nil {
		return summary, errors.Wrap(err, "sales summary")
	}

	var items struct {
		ItemsSold int64   `db:"items_sold"`
		UnitsSold int64   `db:"units_sold"`
		Cost      float64 `db:"cost"`
	}
	err = r.db.GetContext(ctx, &items, `SELECT
            COALESCE(SUM(si.quantity), 0) AS items_sold,
            COALESCE(SUM(si.units), 0) AS units_sold,
            COALESCE(SUM(si.unit_cost * si.quantity), 0.0) AS cost
            FROM sale_items si
            JOIN sales s ON s.id = si.sale_id
            WHERE`+completedIn, start, end)
	if err != nil {
		return summary, errors.Wrap(err, "sales item summary")
	}
	summary.TotalItemsSold = items.ItemsSold
	summary.TotalUnitsSold = items.UnitsSold
	summary.TotalCost = items.Cost
	summary.GrossProfit = summary.TotalRevenue - summary.TotalTax - summary.TotalCost
	return summary, nil
}

func (r *AnalyticsRepository) Daily(ctx context.Context, start, end string) ([]domain.DailySales, error) {
	rows := []domain.DailySales{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            date(s.created_at) AS date,
            SUM(s.total_amount) AS revenue,
            COUNT(*) AS transactions,
            SUM(s.total_amount - s.tax - COALESCE((SELECT SUM(si.unit_cost * si.quantity) FROM sale_items si WHERE si.sale_id = s.id), 0.0)) AS profit
            FROM sales s
            WHERE`+completedIn+`
            GROUP BY date(s.created_at)
            ORDER BY date ASC`, start, end)
	return rows, errors.Wrap(err, "daily sales")
}

func (r *AnalyticsRepository) TopMedicines(ctx context.Context, start, end string, limit int) ([]domain.MedicineSales, error) {
	rows := []domain.MedicineSales{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            si.medicine_id, m.name,
            SUM(si.quantity) AS quantity_sold,
            SUM(si.units) AS units_sold,
            SUM(si.total_price) AS revenue,
            SUM(si.total_price - si.unit_cost * si.quantity) AS profit
            FROM sale_items si
            JOIN sales s ON s.id = si.sale_id
            JOIN medicines m ON m.id = si.medicine_id
            WHERE`+completedIn+`
            GROUP BY si.medicine_id, m.name
            ORDER BY revenue DESC, m.name ASC
            LIMIT ?`, start, end, limit)
	return rows, errors.Wrap(err, "top medicines")
}

func (r *AnalyticsRepository) ByCategory(ctx context.Context, start, end string) ([]domain.CategorySales, error) {
	rows := []domain.CategorySales{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            m.category_id,
            COALESCE(c.name, 'Uncategorized') AS category,
            SUM(si.quantity) AS quantity_sold,
            SUM(si.total_price) AS revenue
            FROM sale_items si
            JOIN sales s ON s.id = si.sale_id
            JOIN medicines m ON m.id = si.medicine_id
            LEFT JOIN medicine_categories c ON c.id = m.category_id
            WHERE`+completedIn+`
            GROUP BY m.category_id, c.name
            ORDER BY revenue DESC`, start, end)
	return rows, errors.Wrap(err, "sales by category")
}

func (r *AnalyticsRepository) ByPaymentMethod(ctx context.Context, start, end string) ([]domain.PaymentMethodSales, error) {
	rows := []domain.PaymentMethodSales{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            s.payment_method,
            COUNT(*) AS transactions,
            SUM(s.total_amount) AS revenue
            FROM sales s
            WHERE`+completedIn+`
            GROUP BY s.payment_method
            ORDER BY revenue DESC`, start, end)
	return rows, errors.Wrap(err, "sales by payment method")
}

func (r *AnalyticsRepository) Hourly(ctx context.Context, start, end string) ([]domain.HourlySales, error) {
	rows := []domain.HourlySales{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            CAST(strftime('%H', s.created_at) AS INTEGER) AS hour,
            COUNT(*) AS transactions,
            SUM(s.total_amount) AS revenue
            FROM sales s
            WHERE`+completedIn+`
            GROUP BY hour
            ORDER BY hour ASC`, start, end)
	return rows, errors.Wrap(err, "hourly sales")
}

func (r *AnalyticsRepository) ByCashier(ctx context.Context, start, end string) ([]domain.CashierSales, error) {
	rows := []domain.CashierSales{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            s.user_id,
            COALESCE(NULLIF(u.full_name, ''), u.username, 'Unknown') AS cashier,
            COUNT(*) AS transactions,
            SUM(s.total_amount) AS revenue
            FROM sales s
            LEFT JOIN users u ON u.id = s.user_id
            WHERE`+completedIn+`
            GROUP BY s.user_id
            ORDER BY revenue DESC`, start, end)
	return rows, errors.Wrap(err, "sales by cashier")
}

// MedicineActivity returns every sellable medicine with its revenue and units
// sold inside [start, end] and the time it was last sold at all.
func (r *AnalyticsRepository) MedicineActivity(ctx context.Context, start, end string) ([]domain.MedicineActivity, error) {
	rows := []domain.MedicineActivity{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            m.id AS medicine_id, m.name, m.quantity_in_stock, m.reorder_level, m.purchase_price_per_carton, m.units_per_carton,
            COALESCE(w.revenue, 0.0) AS revenue,
            COALESCE(w.units_sold, 0) AS units_sold,
            l.last_sold_at
            FROM medicines m
            LEFT JOIN (
                SELECT si.medicine_id, SUM(si.total_price) AS revenue, SUM(si.units) AS units_sold
                FROM sale_items si
                JOIN sales s ON s.id = si.sale_id
                WHERE`+completedIn+`
                GROUP BY si.medicine_id
            ) w ON w.medicine_id = m.id
            LEFT JOIN (
                SELECT si.medicine_id, MAX(s.created_at) AS last_sold_at
                FROM sale_items si
                JOIN sales s ON s.id = si.sale_id AND s.status = 'completed'
                GROUP BY si.medicine_id
            ) l ON l.medicine_id = m.id
            WHERE m.status <> 'inactive'
            ORDER BY m.name ASC`, start, end)
	return rows, errors.Wrap(err, "medicine activity")
}

// DailyUnits returns units sold per medicine per day inside [start, end].
// Days without sales are absent.
func (r *AnalyticsRepository) DailyUnits(ctx context.Context, start, end string) ([]domain.DailyUnits, error) {
	rows := []domain.DailyUnits{}
	err := r.db.SelectContext(ctx, &rows, `SELECT
            si.medicine_id,
            date(s.created_at) AS date,
            SUM(si.units) AS units
            FROM sale_items si
            JOIN sales s ON s.id = si.sale_id
            WHERE`+completedIn+`
            GROUP BY si.medicine_id, date(s.created_at)`, start, end)
	return rows, errors.Wrap(err, "daily units")
}

type InventoryCounts struct {
	TotalMedicines  int64   `db:"total_medicines"`
	ActiveMedicines int64   `db:"active_medicines"`
	LowStock        int64   `db:"low_stock"`
	ExpiringSoon    int64   `db:"expiring_soon"`
	Expired         int64   `db:"expired"`
	CostValue       float64 `db:"cost_value"`
	RetailValue     float64 `db:"retail_value"`
}

func (r *AnalyticsRepository) InventoryCounts(ctx context.Context, today, expiringUntil string) (InventoryCounts, error) {
	var counts InventoryCounts
	err := r.db.GetContext(ctx, &counts, `SELECT
            COUNT(*) AS total_medicines,
            COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0) AS active_medicines,
            COALESCE(SUM(CASE WHEN status <> 'inactive' AND quantity_in_stock <= reorder_level THEN 1 ELSE 0 END), 0) AS low_stock,
            COALESCE(SUM(CASE WHEN quantity_in_stock > 0 AND expiry_date >= ? AND expiry_date <= ? THEN 1 ELSE 0 END), 0) AS expiring_soon,
            COALESCE(SUM(CASE WHEN quantity_in_stock > 0 AND expiry_date < ? THEN 1 ELSE 0 END), 0) AS expired,
            COALESCE(SUM(quantity_in_stock * purchase_price_per_carton / units_per_carton), 0.0) AS cost_value,
            COALESCE(SUM(quantity_in_stock * selling_price_single), 0.0) AS retail_value
            FROM medicines`, today, expiringUntil, today)
	return counts, errors.Wrap(err, "inventory counts")
}

type PeriodTotals struct {
	Revenue      float64 `db:"revenue"`
	Transactions int64   `db:"transactions"`
	Profit       float64 `db:"profit"`
}

func (r *AnalyticsRepository) PeriodTotals(ctx context.Context, start, end string) (PeriodTotals, error) {
	var totals PeriodTotals
	err := r.db.GetContext(ctx, &totals, `SELECT
            COALESCE(SUM(s.total_amount), 0.0) AS revenue,
            COUNT(*) AS transactions,
            COALESCE(SUM(s.total_amount - s.tax - COALESCE((SELECT SUM(si.unit_cost * si.quantity) FROM sale_items si WHERE si.sale_id = s.id), 0.0)), 0.0) AS profit
            FROM sales s
            WHERE`+completedIn, start, end)
	return totals, errors.Wrap(err, "period totals")
}
