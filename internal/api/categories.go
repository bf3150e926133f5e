package api

import (
	"net/http"

	"pharmapos/m/internal/service"
)

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.Categories.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, categories)
}

func (h *Handler) getCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.svc.Categories.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, category)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.svc.Categories.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	category, err := h.svc.Categories.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, category)
}

func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Categories.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"deleted": id})
}
