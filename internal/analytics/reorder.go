package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"pharmapos/m/domain"
)

// serviceLevelZ is the z-score for a 95% cycle service level.
const serviceLevelZ = 1.65

type ReorderParams struct {
	LeadDays     int
	CoverageDays int
	// Days are the calendar days of the observation window, oldest first.
	Days []string
}

// WindowDays lists every date from start to end inclusive.
func WindowDays(start, end time.Time) []string {
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format(domain.DateLayout))
	}
	return days
}

// ForecastReorders projects demand for every medicine from its daily unit
// sales and returns the forecasts ordered by urgency.
func ForecastReorders(rows []domain.MedicineActivity, series []domain.DailyUnits, p ReorderParams) []domain.ReorderForecast {
	byMedicine := make(map[int64]map[string]int64)
	for _, point := range series {
		if byMedicine[point.MedicineID] == nil {
			byMedicine[point.MedicineID] = make(map[string]int64)
		}
		byMedicine[point.MedicineID][point.Date] += point.Units
	}

	lead := float64(p.LeadDays)
	forecasts := make([]domain.ReorderForecast, 0, len(rows))
	for _, row := range rows {
		daily := make(stats.Float64Data, len(p.Days))
		for i, day := range p.Days {
			daily[i] = float64(byMedicine[row.MedicineID][day])
		}

		var avg, sd float64
		if len(daily) > 0 {
			avg, _ = stats.Mean(daily)
			sd, _ = stats.StandardDeviationPopulation(daily)
		}

		safety := serviceLevelZ * sd * math.Sqrt(lead)
		reorderPoint := avg*lead + safety
		stock := float64(row.QuantityInStock)

		f := domain.ReorderForecast{
			MedicineID:       row.MedicineID,
			Name:             row.Name,
			QuantityInStock:  row.QuantityInStock,
			ReorderLevel:     row.ReorderLevel,
			AvgDailyUnits:    round2(avg),
			StdDevDailyUnits: round2(sd),
			SafetyStock:      round2(safety),
			ReorderPoint:     round2(reorderPoint),
			NeedsReorder:     stock <= reorderPoint || row.QuantityInStock <= row.ReorderLevel,
		}
		if avg > 0 {
			days := round2(stock / avg)
			f.DaysOfStock = &days
		}
		target := avg*(lead+float64(p.CoverageDays)) + safety - stock
		if target > 0 {
			f.SuggestedQuantity = int64(math.Ceil(target - 1e-9))
		}
		forecasts = append(forecasts, f)
	}

	sort.SliceStable(forecasts, func(i, j int) bool {
		a, b := forecasts[i], forecasts[j]
		if a.NeedsReorder != b.NeedsReorder {
			return a.NeedsReorder
		}
		return daysOrMax(a) < daysOrMax(b)
	})
	return forecasts
}

func daysOrMax(f domain.ReorderForecast) float64 {
	if f.DaysOfStock == nil {
		return math.MaxFloat64
	}
	return *f.DaysOfStock
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
