package api

import (
	"errors"
	"io"
	"net/http"
)

func (h *Handler) registerUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"user_name"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.provisioning.RegisterUser(r.Context(), req.UserName, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) userExists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"user_name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	exists, err := h.provisioning.UserExists(r.Context(), req.UserName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) dropUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"user_name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.provisioning.DropUser(r.Context(), req.UserName); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) grantUserAdmin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"user_name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.provisioning.GrantUserAdmin(r.Context(), req.UserName); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkUser(w http.ResponseWriter, r *http.Request) {
	if err := h.provisioning.CheckUser(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkUserGrants(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Grants string `json:"grants"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.provisioning.CheckUserGrants(r.Context(), req.Grants); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMyUsage(w http.ResponseWriter, r *http.Request) {
	// The body is optional: without one (or without user_name) the caller
	// asks about itself. Admins may name another principal.
	var req struct {
		UserName string `json:"user_name"`
	}
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, err)
		return
	}
	usage, err := h.usage.GetUserUsage(r.Context(), req.UserName)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (h *Handler) logSizes(w http.ResponseWriter, r *http.Request) {
	if err := h.usage.LogSizes(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
