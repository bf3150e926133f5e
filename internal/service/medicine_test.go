package service

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"pharmapos/m/domain"
)

func TestCreateMedicineWithRequiredFields(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	m, created, err := svc.Medicines.Create(ctx, MedicineInput{
		Name:               "Cetirizine 10mg",
		SellingPriceSingle: 3,
		ExpiryDate:         "2026-03-31",
	}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created {
		t.Fatalf("expected a new medicine")
	}
	if m.ID == 0 || m.Status != domain.MedicineActive || m.UnitsPerCarton != 1 {
		t.Fatalf("unexpected medicine: %+v", m)
	}
	if m.CreatedAt != "2024-06-15 10:30:00" {
		t.Fatalf("created_at = %q", m.CreatedAt)
	}
}

func TestCreateMedicineValidation(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	missing := int64(99)

	cases := []struct {
		name  string
		edit  func(*MedicineInput)
		field string
	}{
		{"missing name", func(in *MedicineInput) { in.Name = "  " }, "name"},
		{"missing expiry", func(in *MedicineInput) { in.ExpiryDate = "" }, "expiry_date"},
		{"bad expiry", func(in *MedicineInput) { in.ExpiryDate = "31/12/2030" }, "expiry_date"},
		{"negative stock", func(in *MedicineInput) { in.QuantityInStock = -5 }, "quantity_in_stock"},
		{"no price", func(in *MedicineInput) {
			in.SellingPriceFull, in.SellingPriceHalf, in.SellingPriceSingle = 0, 0, 0
		}, "selling_price_single"},
		{"half of single unit carton", func(in *MedicineInput) { in.UnitsPerCarton = 1 }, "selling_price_half"},
		{"unknown category", func(in *MedicineInput) { in.CategoryID = &missing }, "category_id"},
		{"bad status", func(in *MedicineInput) { in.Status = "recalled" }, "status"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := paracetamol()
			tc.edit(&in)
			_, _, err := svc.Medicines.Create(ctx, in, nil)
			if got := validationField(err); got != tc.field {
				t.Fatalf("field = %q (err %v), want %q", got, err, tc.field)
			}
		})
	}
}

func TestCreateDuplicateNameAndCategoryAddsStock(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	cat, err := svc.Categories.Create(ctx, CategoryInput{Name: "Analgesics"})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	in := paracetamol()
	in.CategoryID = &cat.ID
	first := mustMedicine(t, svc, in)

	again := paracetamol()
	again.Name = "PARACETAMOL 500MG"
	again.CategoryID = &cat.ID
	again.QuantityInStock = 50
	again.SellingPriceSingle = 7
	again.ExpiryDate = "2031-06-30"
	merged, created, err := svc.Medicines.Create(ctx, again, nil)
	if err != nil {
		t.Fatalf("create duplicate: %v", err)
	}
	if created {
		t.Fatalf("duplicate should not create a new medicine")
	}
	if merged.ID != first.ID {
		t.Fatalf("merged into %d, want %d", merged.ID, first.ID)
	}
	if merged.QuantityInStock != 150 || merged.SellingPriceSingle != 7 || merged.ExpiryDate != "2031-06-30" {
		t.Fatalf("unexpected merged medicine: %+v", merged)
	}

	// The same name without a category is a different medicine.
	other := mustMedicine(t, svc, paracetamol())
	if other.ID == first.ID {
		t.Fatalf("uncategorised medicine merged into categorised one")
	}

	moves, err := svc.Medicines.Movements(ctx, domain.MovementFilter{MedicineID: first.ID})
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(moves) != 2 {
		t.Fatalf("movements = %+v, want initial and restock", moves)
	}
	var restocked bool
	for _, mv := range moves {
		if mv.MovementType == domain.MovementRestock && mv.QuantityChange == 50 && mv.QuantityAfter == 150 {
			restocked = true
		}
	}
	if !restocked {
		t.Fatalf("no restock movement in %+v", moves)
	}
}

func TestCreatePastExpiryIsExpired(t *testing.T) {
	svc, _ := newTestServices(t)
	in := paracetamol()
	in.ExpiryDate = "2024-06-14"
	m := mustMedicine(t, svc, in)
	if m.Status != domain.MedicineExpired {
		t.Fatalf("status = %q, want expired", m.Status)
	}
}

func TestAdjustStock(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	m := mustMedicine(t, svc, paracetamol())

	got, err := svc.Medicines.AdjustStock(ctx, m.ID, StockAdjustment{Change: -30, Reason: "damaged"}, nil)
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if got.QuantityInStock != 70 {
		t.Fatalf("stock = %d, want 70", got.QuantityInStock)
	}

	_, err = svc.Medicines.AdjustStock(ctx, m.ID, StockAdjustment{Change: -71}, nil)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("err = %v, want insufficient stock", err)
	}
	if _, err := svc.Medicines.AdjustStock(ctx, m.ID, StockAdjustment{}, nil); validationField(err) != "change" {
		t.Fatalf("zero change accepted: %v", err)
	}
	if _, err := svc.Medicines.AdjustStock(ctx, 404, StockAdjustment{Change: 1}, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestSweepExpired(t *testing.T) {
	svc, clk := newTestServices(t)
	ctx := context.Background()

	in := paracetamol()
	in.ExpiryDate = "2024-06-20"
	m := mustMedicine(t, svc, in)

	if n, err := svc.Medicines.SweepExpired(ctx); err != nil || n != 0 {
		t.Fatalf("sweep = %d, %v; want 0", n, err)
	}
	clk.Set("2024-06-21 00:05:00")
	if n, err := svc.Medicines.SweepExpired(ctx); err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v; want 1", n, err)
	}
	got, err := svc.Medicines.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.MedicineExpired {
		t.Fatalf("status = %q", got.Status)
	}
}

func TestDeleteMedicineWithSalesIsRefused(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	m := mustMedicine(t, svc, paracetamol())

	if _, err := svc.Sales.Create(ctx, SaleInput{
		Items:      []SaleItemInput{{MedicineID: m.ID, UnitType: domain.UnitSingle, Quantity: 1}},
		AmountPaid: 6,
	}, nil); err != nil {
		t.Fatalf("sale: %v", err)
	}
	if err := svc.Medicines.Delete(ctx, m.ID); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	unsold := paracetamol()
	unsold.Name = "Ibuprofen 200mg"
	u := mustMedicine(t, svc, unsold)
	if err := svc.Medicines.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Medicines.Get(ctx, u.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestCreateDuplicateKeepsFieldsLeftOut(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()
	first := mustMedicine(t, svc, paracetamol())

	merged, created, err := svc.Medicines.Create(ctx, MedicineInput{
		Name:               "Paracetamol 500mg",
		SellingPriceSingle: 7,
		QuantityInStock:    5,
		ExpiryDate:         "2031-01-01",
	}, nil)
	if err != nil {
		t.Fatalf("create duplicate: %v", err)
	}
	if created || merged.ID != first.ID {
		t.Fatalf("duplicate not merged: created=%v id=%d", created, merged.ID)
	}
	if merged.UnitsPerCarton != 10 || merged.PurchasePricePerCarton != 30 ||
		merged.SellingPriceFull != 50 || merged.SellingPriceHalf != 26 || merged.ReorderLevel != 20 {
		t.Fatalf("merge lost existing fields: %+v", merged)
	}
	if merged.GenericName != "Paracetamol" {
		t.Fatalf("generic name = %q", merged.GenericName)
	}
	if merged.SellingPriceSingle != 7 || merged.ExpiryDate != "2031-01-01" || merged.QuantityInStock != 105 {
		t.Fatalf("merge did not apply the sent fields: %+v", merged)
	}
	if merged.UnitsPer(domain.UnitFull) != 10 {
		t.Fatalf("full carton now sells %d units", merged.UnitsPer(domain.UnitFull))
	}

	resized := paracetamol()
	resized.UnitsPerCarton = 12
	resized.QuantityInStock = 24
	if _, _, err := svc.Medicines.Create(ctx, resized, nil); validationField(err) != "units_per_carton" {
		t.Fatalf("different carton size: got %v, want units_per_carton error", err)
	}
	got, err := svc.Medicines.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.QuantityInStock != 105 || got.UnitsPerCarton != 10 {
		t.Fatalf("rejected merge changed the row: %+v", got)
	}
}

func TestUpdateMedicine(t *testing.T) {
	svc, clk := newTestServices(t)
	ctx := context.Background()
	m := mustMedicine(t, svc, paracetamol())

	clk.Set("2024-06-16 08:00:00")
	in := paracetamol()
	in.Name = "Paracetamol 500mg tablets"
	in.QuantityInStock = 80
	in.SellingPriceSingle = 6.5
	got, err := svc.Medicines.Update(ctx, m.ID, in, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Paracetamol 500mg tablets" || got.QuantityInStock != 80 || got.SellingPriceSingle != 6.5 {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.CreatedAt != m.CreatedAt || got.UpdatedAt != "2024-06-16 08:00:00" {
		t.Fatalf("timestamps: created %q updated %q", got.CreatedAt, got.UpdatedAt)
	}

	moves, err := svc.Medicines.Movements(ctx, domain.MovementFilter{MedicineID: m.ID, MovementType: domain.MovementAdjustment})
	if err != nil {
		t.Fatalf("movements: %v", err)
	}
	if len(moves) != 1 || moves[0].QuantityChange != -20 || moves[0].QuantityBefore != 100 || moves[0].QuantityAfter != 80 {
		t.Fatalf("adjustment movements = %+v", moves)
	}

	// an update that keeps the quantity records nothing new
	if _, err := svc.Medicines.Update(ctx, m.ID, in, nil); err != nil {
		t.Fatalf("second update: %v", err)
	}
	moves, _ = svc.Medicines.Movements(ctx, domain.MovementFilter{MedicineID: m.ID, MovementType: domain.MovementAdjustment})
	if len(moves) != 1 {
		t.Fatalf("unchanged quantity recorded %d adjustments", len(moves))
	}

	bad := in
	bad.SellingPriceFull, bad.SellingPriceHalf, bad.SellingPriceSingle = 0, 0, 0
	if _, err := svc.Medicines.Update(ctx, m.ID, bad, nil); validationField(err) != "selling_price_single" {
		t.Fatalf("priceless update: got %v", err)
	}
	if _, err := svc.Medicines.Update(ctx, 404, in, nil); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("missing medicine: got %v, want not found", err)
	}
}

func TestUpdateMedicineExpiryStatus(t *testing.T) {
	svc, _ := newTestServices(t)
	ctx := context.Background()

	in := paracetamol()
	in.ExpiryDate = "2024-01-31"
	m := mustMedicine(t, svc, in)
	if m.Status != domain.MedicineExpired {
		t.Fatalf("status = %q, want expired", m.Status)
	}

	in.ExpiryDate = "2026-01-31"
	got, err := svc.Medicines.Update(ctx, m.ID, in, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != domain.MedicineActive {
		t.Fatalf("new expiry: status = %q, want active", got.Status)
	}

	in.ExpiryDate = "2024-05-01"
	if got, err = svc.Medicines.Update(ctx, m.ID, in, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != domain.MedicineExpired {
		t.Fatalf("past expiry: status = %q, want expired", got.Status)
	}

	in.ExpiryDate = "2026-01-31"
	in.Status = domain.MedicineInactive
	if got, err = svc.Medicines.Update(ctx, m.ID, in, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != domain.MedicineInactive {
		t.Fatalf("explicit status: %q, want inactive", got.Status)
	}
}
