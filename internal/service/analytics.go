package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pharmapos/m/domain"
	"pharmapos/m/internal/analytics"
	"pharmapos/m/internal/repository"
)

const (
	defaultRangeDays  = 30
	defaultWindowDays = 90
	defaultExpiryDays = 30
	defaultTopLimit   = 10
)

type SalesQuery struct {
	StartDate string
	EndDate   string
	Limit     int
}

type InventoryQuery struct {
	WindowDays   int
	LeadDays     int
	CoverageDays int
	ExpiryDays   int
}

type AnalyticsService struct {
	repo         *repository.AnalyticsRepository
	medicines    *repository.MedicineRepository
	sales        *repository.SaleRepository
	log          *zap.Logger
	clock        clock
	leadDays     int
	coverageDays int
}

// dateRange resolves loosely formatted dates into an inclusive day range. A
// missing end is today and a missing start is 30 days before the end.
func (s *AnalyticsService) dateRange(start, end string) (domain.DateRange, error) {
	to := s.clock.Midnight()
	if strings.TrimSpace(end) != "" {
		t, err := dateparse.ParseIn(strings.TrimSpace(end), s.clock.loc)
		if err != nil {
			return domain.DateRange{}, domain.Invalid("end_date", "cannot read %q as a date", end)
		}
		to = t
	}
	from := to.AddDate(0, 0, -(defaultRangeDays - 1))
	if strings.TrimSpace(start) != "" {
		t, err := dateparse.ParseIn(strings.TrimSpace(start), s.clock.loc)
		if err != nil {
			return domain.DateRange{}, domain.Invalid("start_date", "cannot read %q as a date", start)
		}
		from = t
	}
	r := domain.DateRange{
		StartDate: from.Format(domain.DateLayout),
		EndDate:   to.Format(domain.DateLayout),
	}
	if r.EndDate < r.StartDate {
		return domain.DateRange{}, domain.Invalid("end_date", "must not be before start_date")
	}
	return r, nil
}

// Sales builds the sales report for a date range. Every breakdown covers the
// same completed sales as the summary.
func (s *AnalyticsService) Sales(ctx context.Context, q SalesQuery) (*domain.SalesReport, error) {
	r, err := s.dateRange(q.StartDate, q.EndDate)
	if err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultTopLimit
	}

	report := &domain.SalesReport{Range: r}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		report.Summary, err = s.repo.Summary(gctx, r.StartDate, r.EndDate)
		return err
	})
	g.Go(func() (err error) {
		report.Daily, err = s.repo.Daily(gctx, r.StartDate, r.EndDate)
		return err
	})
	g.Go(func() (err error) {
		report.TopMedicines, err = s.repo.TopMedicines(gctx, r.StartDate, r.EndDate, limit)
		return err
	})
	g.Go(func() (err error) {
		report.ByCategory, err = s.repo.ByCategory(gctx, r.StartDate, r.EndDate)
		return err
	})
	g.Go(func() (err error) {
		report.ByPaymentMethod, err = s.repo.ByPaymentMethod(gctx, r.StartDate, r.EndDate)
		return err
	})
	g.Go(func() (err error) {
		report.Hourly, err = s.repo.Hourly(gctx, r.StartDate, r.EndDate)
		return err
	})
	g.Go(func() (err error) {
		report.ByCashier, err = s.repo.ByCashier(gctx, r.StartDate, r.EndDate)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "build sales report")
	}

	if net := report.Summary.TotalRevenue - report.Summary.TotalTax; net > 0 {
		report.Summary.ProfitMargin = round2(report.Summary.GrossProfit / net * 100)
	}
	return report, nil
}

// Medicines builds the inventory report: ABC classes, reorder forecasts and
// dead stock over the trailing window, plus expiry and low stock lists.
func (s *AnalyticsService) Medicines(ctx context.Context, q InventoryQuery) (*domain.InventoryReport, error) {
	if q.WindowDays <= 0 {
		q.WindowDays = defaultWindowDays
	}
	if q.WindowDays > 365 {
		return nil, domain.Invalid("window_days", "must be at most 365")
	}
	if q.LeadDays <= 0 {
		q.LeadDays = s.leadDays
	}
	if q.CoverageDays <= 0 {
		q.CoverageDays = s.coverageDays
	}
	if q.ExpiryDays <= 0 {
		q.ExpiryDays = defaultExpiryDays
	}

	end := s.clock.Midnight()
	start := end.AddDate(0, 0, -(q.WindowDays - 1))
	from, to := start.Format(domain.DateLayout), end.Format(domain.DateLayout)

	rows, err := s.repo.MedicineActivity(ctx, from, to)
	if err != nil {
		return nil, err
	}
	series, err := s.repo.DailyUnits(ctx, from, to)
	if err != nil {
		return nil, err
	}
	expiring, err := s.medicines.Expiring(ctx, to, end.AddDate(0, 0, q.ExpiryDays).Format(domain.DateLayout))
	if err != nil {
		return nil, err
	}
	expired, err := s.medicines.Expired(ctx, to)
	if err != nil {
		return nil, err
	}
	low, err := s.medicines.LowStock(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.InventoryReport{
		WindowDays: q.WindowDays,
		ABC:        analytics.ClassifyABC(rows),
		Reorder: analytics.ForecastReorders(rows, series, analytics.ReorderParams{
			LeadDays:     q.LeadDays,
			CoverageDays: q.CoverageDays,
			Days:         analytics.WindowDays(start, end),
		}),
		DeadStock: analytics.FindDeadStock(rows, start, s.clock.Now()),
		Expiring:  expiring,
		Expired:   expired,
		LowStock:  low,
	}, nil
}

// Dashboard gathers the headline counters shown on the home screen.
func (s *AnalyticsService) Dashboard(ctx context.Context) (*domain.DashboardStats, error) {
	midnight := s.clock.Midnight()
	today := midnight.Format(domain.DateLayout)
	monthStart := time.Date(midnight.Year(), midnight.Month(), 1, 0, 0, 0, 0, midnight.Location()).Format(domain.DateLayout)
	expiringUntil := midnight.AddDate(0, 0, defaultExpiryDays).Format(domain.DateLayout)

	var (
		day, month repository.PeriodTotals
		counts     repository.InventoryCounts
		recent     []domain.Sale
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		day, err = s.repo.PeriodTotals(gctx, today, today)
		return err
	})
	g.Go(func() (err error) {
		month, err = s.repo.PeriodTotals(gctx, monthStart, today)
		return err
	})
	g.Go(func() (err error) {
		counts, err = s.repo.InventoryCounts(gctx, today, expiringUntil)
		return err
	})
	g.Go(func() (err error) {
		recent, _, err = s.sales.List(gctx, domain.SaleFilter{Limit: 5})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "build dashboard")
	}

	return &domain.DashboardStats{
		TodayRevenue:         round2(day.Revenue),
		TodayTransactions:    day.Transactions,
		TodayProfit:          round2(day.Profit),
		MonthRevenue:         round2(month.Revenue),
		TotalMedicines:       counts.TotalMedicines,
		ActiveMedicines:      counts.ActiveMedicines,
		LowStockCount:        counts.LowStock,
		ExpiringSoonCount:    counts.ExpiringSoon,
		ExpiredCount:         counts.Expired,
		InventoryCostValue:   round2(counts.CostValue),
		InventoryRetailValue: round2(counts.RetailValue),
		RecentSales:          recent,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
