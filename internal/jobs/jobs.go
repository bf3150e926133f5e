// Package jobs runs the periodic inventory housekeeping.
package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"pharmapos/m/internal/service"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

const jobTimeout = time.Minute

type Scheduler struct {
	medicines *service.MedicineService
	log       *zap.Logger
	sched     *cron.Cron
}

func New(medicines *service.MedicineService, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		medicines: medicines,
		log:       log.Named("jobs"),
		sched:     cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
	}
}

// Start registers both jobs with the given schedules and starts the cron
// runner.
func (s *Scheduler) Start(expirySpec, lowStockSpec string) error {
	if _, err := s.sched.AddFunc(expirySpec, s.run("expiry sweep", s.ExpirySweep)); err != nil {
		return errors.Wrapf(err, "schedule expiry sweep %q", expirySpec)
	}
	if _, err := s.sched.AddFunc(lowStockSpec, s.run("low stock report", s.LowStockReport)); err != nil {
		return errors.Wrapf(err, "schedule low stock report %q", lowStockSpec)
	}
	s.sched.Start()
	s.log.Info("scheduler started", zap.String("expiry_sweep", expirySpec), zap.String("low_stock", lowStockSpec))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.sched.Stop().Done()
}

func (s *Scheduler) run(name string, job func(context.Context) error) func() {
	return func() {
		defer func() {
			if err := recover(); err != nil {
				s.log.Error("job panicked", zap.String("job", name), zap.Any("panic", err))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		}
	}
}

// ExpirySweep marks active medicines past their expiry date as expired.
func (s *Scheduler) ExpirySweep(ctx context.Context) error {
	n, err := s.medicines.SweepExpired(ctx)
	if err != nil {
		return err
	}
	s.log.Info("expiry sweep finished", zap.Int64("expired", n))
	return nil
}

// LowStockReport logs every medicine at or below its reorder level.
func (s *Scheduler) LowStockReport(ctx context.Context) error {
	low, err := s.medicines.LowStock(ctx)
	if err != nil {
		return err
	}
	if len(low) == 0 {
		s.log.Info("no medicines below reorder level")
		return nil
	}
	names := make([]string, 0, len(low))
	for _, m := range low {
		names = append(names, m.Name)
	}
	s.log.Warn("medicines below reorder level", zap.Int("count", len(low)), zap.Strings("names", names))
	return nil
}
