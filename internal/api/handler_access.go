package api

import (
	"net/http"

	"geolake/internal/domain"
)

func (h *Handler) grantAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		User       string `json:"user"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.access.GrantAccessToCollection(r.Context(), req.Collection, req.User); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) revokeAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		User       string `json:"user"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.access.RevokeAccessFromCollection(r.Context(), req.Collection, req.User); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publishCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.access.PublishCollection(r.Context(), req.Collection); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unpublishCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.access.UnpublishCollection(r.Context(), req.Collection); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkAccess(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		User       string `json:"user"`
		Capability string `json:"capability"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if req.Capability == "" {
		req.Capability = domain.CapRead
	}
	allowed, err := h.access.Check(r.Context(), req.Collection, req.User, req.Capability)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}

func (h *Handler) listGrants(w http.ResponseWriter, r *http.Request) {
	grants, err := h.access.ListGrants(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if grants == nil {
		grants = []domain.CollectionGrant{}
	}
	writeJSON(w, http.StatusOK, grants)
}
