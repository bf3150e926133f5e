// Package service implements the pharmacy's business rules on top of the
// repositories.
package service

import (
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/repository"
)

type Options struct {
	// Now overrides the clock; timestamps are written in Location.
	Now                 func() time.Time
	Location            *time.Location
	ReorderLeadDays     int
	ReorderCoverageDays int
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Services bundles every service sharing one database and logger.
type Services struct {
	Categories *CategoryService
	Medicines  *MedicineService
	Sales      *SaleService
	Purchases  *PurchaseService
	Users      *UserService
	Analytics  *AnalyticsService
}

func New(db *sqlx.DB, log *zap.Logger, opts Options) *Services {
	clk := newClock(opts)

	categories := repository.NewCategoryRepository(db)
	medicines := repository.NewMedicineRepository(db)
	sales := repository.NewSaleRepository(db)

	lead, coverage := opts.ReorderLeadDays, opts.ReorderCoverageDays
	if lead <= 0 {
		lead = 7
	}
	if coverage <= 0 {
		coverage = 30
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Services{
		Categories: &CategoryService{repo: categories, log: log.Named("categories"), clock: clk},
		Medicines: &MedicineService{
			repo:       medicines,
			categories: categories,
			movements:  repository.NewMovementRepository(db),
			log:        log.Named("medicines"),
			clock:      clk,
		},
		Sales:     &SaleService{repo: sales, medicines: medicines, log: log.Named("sales"), clock: clk},
		Purchases: &PurchaseService{repo: repository.NewPurchaseRepository(db), medicines: medicines, log: log.Named("purchases"), clock: clk},
		Users:     &UserService{repo: repository.NewUserRepository(db), log: log.Named("users"), clock: clk, cost: cost},
		Analytics: &AnalyticsService{
			repo:         repository.NewAnalyticsRepository(db),
			medicines:    medicines,
			sales:        sales,
			log:          log.Named("analytics"),
			clock:        clk,
			leadDays:     lead,
			coverageDays: coverage,
		},
	}
}

type clock struct {
	now func() time.Time
	loc *time.Location
}

func newClock(opts Options) clock {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return clock{now: now, loc: loc}
}

func (c clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c clock) Stamp() string {
	return c.Now().Format(domain.TimestampLayout)
}

func (c clock) Today() string {
	return c.Now().Format(domain.DateLayout)
}

func (c clock) Midnight() time.Time {
	n := c.Now()
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}

// parseDate accepts YYYY-MM-DD only; stored dates compare as strings.
func parseDate(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", domain.Invalid(field, "is required")
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return "", domain.Invalid(field, "must be in YYYY-MM-DD format")
	}
	return t.Format(domain.DateLayout), nil
}
