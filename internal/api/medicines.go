package api

import (
	"net/http"
	"strings"

	"pharmapos/m/domain"
	"pharmapos/m/internal/service"
)

func (h *Handler) listMedicines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := page(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	categoryID, err := queryInt64(r, "category_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lowStock, err := queryBool(r, "low_stock")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filter := domain.MedicineFilter{
		Search:         strings.TrimSpace(q.Get("search")),
		CategoryID:     categoryID,
		Status:         q.Get("status"),
		LowStock:       lowStock,
		ExpiringBefore: q.Get("expiring_before"),
		SortBy:         q.Get("sort_by"),
		SortDesc:       strings.EqualFold(q.Get("order"), "desc"),
		Limit:          limit,
		Offset:         offset,
	}
	medicines, total, err := h.svc.Medicines.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondPage(w, medicines, total, limit, offset)
}

func (h *Handler) getMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	medicine, err := h.svc.Medicines.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, medicine)
}

// createMedicine answers 201 for a new medicine and 200 when the request was
// merged into an existing one with the same name and category.
func (h *Handler) createMedicine(w http.ResponseWriter, r *http.Request) {
	var req service.MedicineInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	medicine, created, err := h.svc.Medicines.Create(r.Context(), req, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, envelope{"success": true, "data": medicine, "created": created})
}

func (h *Handler) updateMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.MedicineInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	medicine, err := h.svc.Medicines.Update(r.Context(), id, req, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, medicine)
}

func (h *Handler) deleteMedicine(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Medicines.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"deleted": id})
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.StockAdjustment
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	medicine, err := h.svc.Medicines.AdjustStock(r.Context(), id, req, actor(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, medicine)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	medicines, err := h.svc.Medicines.LowStock(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, medicines)
}

func (h *Handler) expiring(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	medicines, err := h.svc.Medicines.Expiring(r.Context(), days)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, medicines)
}

func (h *Handler) medicineMovements(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.movements(w, r, id)
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	medicineID, err := queryInt64(r, "medicine_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.movements(w, r, medicineID)
}

func (h *Handler) movements(w http.ResponseWriter, r *http.Request, medicineID int64) {
	q := r.URL.Query()
	limit, _, err := page(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	movements, err := h.svc.Medicines.Movements(r.Context(), domain.MovementFilter{
		MedicineID:   medicineID,
		MovementType: q.Get("type"),
		StartDate:    q.Get("start_date"),
		EndDate:      q.Get("end_date"),
		Limit:        limit,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, movements)
}
