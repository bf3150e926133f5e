package analytics

import (
	"sort"
	"time"

	"pharmapos/m/domain"
)

// FindDeadStock returns stocked medicines that sold nothing since cutoff,
// most capital tied up first.
func FindDeadStock(rows []domain.MedicineActivity, cutoff, now time.Time) []domain.DeadStockItem {
	items := []domain.DeadStockItem{}
	for _, row := range rows {
		if row.QuantityInStock <= 0 {
			continue
		}
		var lastSold time.Time
		if row.LastSoldAt != nil {
			t, err := time.ParseInLocation(domain.TimestampLayout, *row.LastSoldAt, now.Location())
			if err == nil {
				lastSold = t
			}
		}
		if !lastSold.IsZero() && !lastSold.Before(cutoff) {
			continue
		}

		item := domain.DeadStockItem{
			MedicineID:      row.MedicineID,
			Name:            row.Name,
			QuantityInStock: row.QuantityInStock,
			LastSoldAt:      row.LastSoldAt,
		}
		if row.UnitsPerCarton > 0 {
			item.TiedUpValue = round2(float64(row.QuantityInStock) * row.PurchasePricePerCarton / float64(row.UnitsPerCarton))
		}
		if !lastSold.IsZero() {
			days := int(now.Sub(lastSold).Hours() / 24)
			item.DaysSinceLastSale = &days
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].TiedUpValue != items[j].TiedUpValue {
			return items[i].TiedUpValue > items[j].TiedUpValue
		}
		return items[i].Name < items[j].Name
	})
	return items
}
