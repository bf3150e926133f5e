package analytics

import (
	"testing"
	"time"

	"pharmapos/m/domain"
)

func TestFindDeadStock(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	cutoff := now.AddDate(0, 0, -90)
	recent := "2024-06-20 09:00:00"
	old := "2024-01-10 12:00:00"

	rows := []domain.MedicineActivity{
		{MedicineID: 1, Name: "Selling", QuantityInStock: 40, PurchasePricePerCarton: 100, UnitsPerCarton: 10, LastSoldAt: &recent},
		{MedicineID: 2, Name: "Stale", QuantityInStock: 20, PurchasePricePerCarton: 50, UnitsPerCarton: 10, LastSoldAt: &old},
		{MedicineID: 3, Name: "Never", QuantityInStock: 10, PurchasePricePerCarton: 300, UnitsPerCarton: 10},
		{MedicineID: 4, Name: "Empty", QuantityInStock: 0, PurchasePricePerCarton: 300, UnitsPerCarton: 10},
	}

	got := FindDeadStock(rows, cutoff, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 dead stock items, got %+v", got)
	}
	if got[0].MedicineID != 3 || got[0].TiedUpValue != 300 || got[0].DaysSinceLastSale != nil {
		t.Fatalf("unexpected first item %+v", got[0])
	}
	if got[1].MedicineID != 2 || got[1].TiedUpValue != 100 {
		t.Fatalf("unexpected second item %+v", got[1])
	}
	if got[1].DaysSinceLastSale == nil || *got[1].DaysSinceLastSale != 172 {
		t.Fatalf("days since last sale = %v, want 172", got[1].DaysSinceLastSale)
	}
}
