package repository

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"pharmapos/m/domain"
	"pharmapos/m/internal/database/databasetest"
)

func TestIsUniqueViolation(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()

	insert := `INSERT INTO medicine_categories (name) VALUES (?)`
	if _, err := db.ExecContext(ctx, insert, "Vitamins"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "vitamins")
	if !isUniqueViolation(err) {
		t.Fatalf("duplicate name not reported as unique violation: %v", err)
	}
	if !isUniqueViolation(errors.Wrap(err, "insert category")) {
		t.Fatalf("wrapped unique violation not detected")
	}

	_, err = db.ExecContext(ctx, `INSERT INTO medicines (name, expiry_date, quantity_in_stock) VALUES ('X', '2030-01-01', -1)`)
	if err == nil || isUniqueViolation(err) {
		t.Fatalf("check constraint failure misreported: %v", err)
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil error reported as unique violation")
	}

	repo := NewCategoryRepository(db)
	err = repo.Create(ctx, &domain.Category{Name: "VITAMINS", CreatedAt: "2024-06-15 10:00:00"})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("create duplicate category: got %v, want ErrConflict", err)
	}
}
