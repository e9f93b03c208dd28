package api

import (
	"net/http"

	"geolake/internal/query"
)

func (h *Handler) getPG(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		Select     string `json:"select"`
		Where      string `json:"where"`
		Group      string `json:"group"`
		Order      string `json:"order"`
		Limit      int    `json:"limit"`
		Offset     int    `json:"offset"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	out, err := h.queries.GetPG(r.Context(), req.Collection, query.PGOptions{
		Select: req.Select,
		Where:  req.Where,
		Group:  req.Group,
		Order:  req.Order,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, out)
}

func (h *Handler) getByBbox(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection     string  `json:"collection"`
		MinX           float64 `json:"minx"`
		MinY           float64 `json:"miny"`
		MaxX           float64 `json:"maxx"`
		MaxY           float64 `json:"maxy"`
		ComparisonMode string  `json:"comparison_mode"`
		BboxCRS        int     `json:"bbox_crs"`
		Where          string  `json:"where"`
		Op             string  `json:"op"`
		Limit          int     `json:"limit"`
		Offset         int     `json:"offset"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	out, err := h.queries.GetByBbox(r.Context(), req.Collection, query.BboxParams{
		MinX:   req.MinX,
		MinY:   req.MinY,
		MaxX:   req.MaxX,
		MaxY:   req.MaxY,
		Mode:   req.ComparisonMode,
		SRID:   req.BboxCRS,
		Where:  req.Where,
		Op:     req.Op,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, out)
}

func (h *Handler) getNearest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string  `json:"collection"`
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		CRS        int     `json:"crs"`
		Select     string  `json:"select"`
		Where      string  `json:"where"`
		Group      string  `json:"group"`
		Limit      int     `json:"limit"`
		Offset     int     `json:"offset"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	out, err := h.queries.GetNearest(r.Context(), req.Collection, query.NearestParams{
		X:      req.X,
		Y:      req.Y,
		SRID:   req.CRS,
		Select: req.Select,
		Where:  req.Where,
		Group:  req.Group,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, out)
}

func (h *Handler) getCollectionSRID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	srid, err := h.queries.GetCollectionSRID(r.Context(), req.Collection)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"srid": srid})
}

func (h *Handler) headCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Collection string `json:"collection"`
		NumLines   int    `json:"num_lines"`
	}
	if err := decode(r, &req); err != nil {
		h.badRequest(w, err)
		return
	}
	out, err := h.queries.HeadCollection(r.Context(), req.Collection, req.NumLines)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, out)
}
