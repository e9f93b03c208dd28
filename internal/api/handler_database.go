package api

import "net/http"

func (h *Handler) createDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	db, err := h.databases.CreateDatabase(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, db)
}

func (h *Handler) truncateDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	if err := h.databases.TruncateDatabase(r.Context(), req.Name); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := h.databases.ListDatabases(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dbs)
}

func (h *Handler) databaseExists(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	exists, err := h.databases.DatabaseExists(r.Context(), req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) userAllowed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		User       string `json:"user"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	allowed, err := h.databases.UserAllowed(r.Context(), req.Collection, req.User)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}
