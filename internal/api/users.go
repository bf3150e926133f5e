package api

import (
	"net/http"

	"pharmapos/m/internal/service"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Users.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, users)
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.Users.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req service.UserInput
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.Users.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, user)
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.UserUpdate
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	user, err := h.svc.Users.Update(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Users.Delete(r.Context(), id, userID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	respondData(w, http.StatusOK, map[string]int64{"deleted": id})
}
