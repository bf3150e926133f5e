// Package analytics reduces query results into inventory insights: ABC
// classification, reorder forecasts and dead-stock detection.
package analytics

import (
	"sort"

	"pharmapos/m/domain"
)

const (
	classAThreshold = 80.0
	classBThreshold = 95.0
)

// ClassifyABC ranks medicines by revenue and assigns A, B or C. A medicine
// belongs to the class in which the revenue share accumulated before it
// falls, so the top seller is always A. Medicines without revenue are C.
func ClassifyABC(rows []domain.MedicineActivity) domain.ABCAnalysis {
	sorted := make([]domain.MedicineActivity, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Revenue != sorted[j].Revenue {
			return sorted[i].Revenue > sorted[j].Revenue
		}
		return sorted[i].Name < sorted[j].Name
	})

	var total float64
	for _, row := range sorted {
		total += row.Revenue
	}

	result := domain.ABCAnalysis{Items: make([]domain.ABCItem, 0, len(sorted)), TotalRevenue: round2(total)}
	classes := map[string]*domain.ABCClassSummary{
		"A": {Class: "A"},
		"B": {Class: "B"},
		"C": {Class: "C"},
	}

	var cumulative float64
	for _, row := range sorted {
		var share float64
		if total > 0 {
			share = row.Revenue / total * 100
		}
		class := "C"
		switch {
		case row.Revenue <= 0:
		case cumulative < classAThreshold:
			class = "A"
		case cumulative < classBThreshold:
			class = "B"
		}
		cumulative += share

		result.Items = append(result.Items, domain.ABCItem{
			MedicineID:      row.MedicineID,
			Name:            row.Name,
			Revenue:         round2(row.Revenue),
			RevenueShare:    round2(share),
			CumulativeShare: round2(cumulative),
			Class:           class,
			QuantityInStock: row.QuantityInStock,
		})
		summary := classes[class]
		summary.Count++
		summary.Revenue += row.Revenue
	}

	for _, name := range []string{"A", "B", "C"} {
		summary := classes[name]
		if total > 0 {
			summary.RevenueShare = round2(summary.Revenue / total * 100)
		}
		summary.Revenue = round2(summary.Revenue)
		result.Classes = append(result.Classes, *summary)
	}
	return result
}
