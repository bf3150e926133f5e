package api

import (
	"net/http"
	"strings"

	"pharmapos/m/domain"
	"pharmapos/m/internal/service"
)

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req service.SaleInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.svc.Sales.Create(r.Context(), req, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cashierID, err := queryInt64(r, "user_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sales, total, err := h.svc.Sales.List(r.Context(), domain.SaleFilter{
		StartDate:     q.Get("start_date"),
		EndDate:       q.Get("end_date"),
		UserID:        cashierID,
		PaymentMethod: q.Get("payment_method"),
		Status:        q.Get("status"),
		Search:        strings.TrimSpace(q.Get("search")),
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondPage(w, sales, total, limit, offset)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sale, err := h.svc.Sales.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sale)
}

func (h *Handler) voidSale(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var payload struct {
		Reason string `json:"reason"`
	}
	// The body is optional.
	if err := decodeJSON(r, &payload); err != nil && err != errEmptyBody {
		h.fail(w, r, err)
		return
	}
	sale, err := h.svc.Sales.Void(r.Context(), id, payload.Reason, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, sale)
}
