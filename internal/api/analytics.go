package api

import (
	"net/http"

	"pharmapos/m/internal/service"
)

func (h *Handler) salesAnalytics(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.svc.Analytics.Sales(r.Context(), service.SalesQuery{
		StartDate: r.URL.Query().Get("start_date"),
		EndDate:   r.URL.Query().Get("end_date"),
		Limit:     limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, report)
}

func (h *Handler) medicineAnalytics(w http.ResponseWriter, r *http.Request) {
	var (
		q   service.InventoryQuery
		err error
	)
	for key, dest := range map[string]*int{
		"window_days":   &q.WindowDays,
		"lead_days":     &q.LeadDays,
		"coverage_days": &q.CoverageDays,
		"expiry_days":   &q.ExpiryDays,
	} {
		if *dest, err = queryInt(r, key); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	report, err := h.svc.Analytics.Medicines(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, report)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Analytics.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, stats)
}
