package api

import (
	"net/http"
	"strings"

	"pharmapos/m/domain"
	"pharmapos/m/internal/service"
)

func (h *Handler) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req service.PurchaseInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	purchase, err := h.svc.Purchases.Create(r.Context(), req, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, purchase)
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	medicineID, err := queryInt64(r, "medicine_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	purchases, total, err := h.svc.Purchases.List(r.Context(), domain.PurchaseFilter{
		MedicineID: medicineID,
		Supplier:   strings.TrimSpace(q.Get("supplier")),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondPage(w, purchases, total, limit, offset)
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Purchases.Delete(r.Context(), id, actor(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"deleted": id})
}
