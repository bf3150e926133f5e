package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/database/databasetest"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Set(layout string) {
	t, err := time.ParseInLocation(domain.TimestampLayout, layout, time.UTC)
	if err != nil {
		panic(err)
	}
	c.now = t
}

func newTestServices(t *testing.T) (*Services, *testClock) {
	t.Helper()
	clk := &testClock{}
	clk.Set("2024-06-15 10:30:00")
	svc := New(databasetest.Open(t), zap.NewNop(), Options{
		Now:        clk.Now,
		Location:   time.UTC,
		BcryptCost: bcrypt.MinCost,
	})
	return svc, clk
}

func mustMedicine(t *testing.T, svc *Services, in MedicineInput) *domain.Medicine {
	t.Helper()
	m, _, err := svc.Medicines.Create(context.Background(), in, nil)
	if err != nil {
		t.Fatalf("create medicine %s: %v", in.Name, err)
	}
	return m
}

func paracetamol() MedicineInput {
	return MedicineInput{
		Name:                   "Paracetamol 500mg",
		GenericName:            "Paracetamol",
		PurchasePricePerCarton: 30,
		UnitsPerCarton:         10,
		SellingPriceFull:       50,
		SellingPriceHalf:       26,
		SellingPriceSingle:     6,
		QuantityInStock:        100,
		ReorderLevel:           20,
		ExpiryDate:             "2030-01-01",
	}
}

func validationField(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}
