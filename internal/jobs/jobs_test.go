package jobs

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pharmapos/m/domain"
	"pharmapos/m/internal/database/databasetest"
	"pharmapos/m/internal/service"
)

func newScheduler(t *testing.T, now *time.Time) (*Scheduler, *service.Services, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)
	svc := service.New(databasetest.Open(t), log, service.Options{
		Now:      func() time.Time { return *now },
		Location: time.UTC,
	})
	return New(svc.Medicines, time.UTC, log), svc, logs
}

func addMedicine(t *testing.T, svc *service.Services, name, expiry string, stock, reorder int64) {
	t.Helper()
	_, _, err := svc.Medicines.Create(context.Background(), service.MedicineInput{
		Name:               name,
		SellingPriceSingle: 2,
		QuantityInStock:    stock,
		ReorderLevel:       reorder,
		ExpiryDate:         expiry,
	}, nil)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
}

func TestExpirySweep(t *testing.T) {
	now := time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)
	s, svc, logs := newScheduler(t, &now)
	ctx := context.Background()
	addMedicine(t, svc, "Cough Syrup", "2024-06-20", 10, 0)
	addMedicine(t, svc, "Eye Drops", "2024-07-20", 10, 0)

	expired := func() []domain.MedicineWithStats {
		rows, _, err := svc.Medicines.List(ctx, domain.MedicineFilter{Status: domain.MedicineExpired})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		return rows
	}

	if err := s.ExpirySweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if rows := expired(); len(rows) != 0 {
		t.Fatalf("expired too early: %+v", rows)
	}

	now = time.Date(2024, 6, 25, 1, 0, 0, 0, time.UTC)
	if err := s.ExpirySweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	rows := expired()
	if len(rows) != 1 || rows[0].Name != "Cough Syrup" {
		t.Fatalf("expired = %+v", rows)
	}
	last := logs.FilterMessage("expiry sweep finished").All()
	if len(last) != 2 || last[1].ContextMap()["expired"] != int64(1) {
		t.Fatalf("sweep log entries = %+v", last)
	}
}

func TestLowStockReportLogsNames(t *testing.T) {
	now := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)
	s, svc, logs := newScheduler(t, &now)
	addMedicine(t, svc, "Insulin Pen", "2025-01-01", 2, 5)
	addMedicine(t, svc, "Gauze", "2025-01-01", 50, 5)

	if err := s.LowStockReport(context.Background()); err != nil {
		t.Fatalf("report: %v", err)
	}
	entries := logs.FilterMessage("medicines below reorder level").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["count"] != int64(1) {
		t.Fatalf("count = %v", fields["count"])
	}
	names, ok := fields["names"].([]interface{})
	if !ok || len(names) != 1 || names[0] != "Insulin Pen" {
		t.Fatalf("names = %#v", fields["names"])
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	now := time.Now()
	s, _, _ := newScheduler(t, &now)
	if err := s.Start("every now and then", "@daily"); err == nil {
		t.Fatalf("expected a bad cron spec to be rejected")
	}
}
