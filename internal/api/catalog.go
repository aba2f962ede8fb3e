package api

import (
	"net/http"

	"github.com/Simplici0/printprice/internal/catalog"
)

func activeOnly(r *http.Request) bool {
	switch r.URL.Query().Get("active") {
	case "1", "true":
		return true
	default:
		return false
	}
}

func (s *Server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := s.catalog.ListMaterials(r.Context(), activeOnly(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, materials)
}

func (s *Server) handleMaterialsCreate(w http.ResponseWriter, r *http.Request) {
	var m catalog.Material
	if err := s.decode(w, r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.catalog.CreateMaterial(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusCreated, created)
}

func (s *Server) handleMaterialsUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := int64Param(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var m catalog.Material
	if err := s.decode(w, r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.catalog.UpdateMaterial(r.Context(), id, m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, updated)
}

func (s *Server) handleRatesList(kind catalog.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rates, err := s.catalog.ListRates(r.Context(), kind, activeOnly(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		data(w, http.StatusOK, rates)
	}
}

func (s *Server) handleRatesCreate(kind catalog.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rate := catalog.Rate{Active: true}
		if err := s.decode(w, r, &rate); err != nil {
			s.writeError(w, r, err)
			return
		}
		created, err := s.catalog.CreateRate(r.Context(), kind, rate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		data(w, http.StatusCreated, created)
	}
}

func (s *Server) handleRatesUpdate(kind catalog.RateKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := int64Param(r, "id")
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		var rate catalog.Rate
		if err := s.decode(w, r, &rate); err != nil {
			s.writeError(w, r, err)
			return
		}
		updated, err := s.catalog.UpdateRate(r.Context(), kind, id, rate)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		data(w, http.StatusOK, updated)
	}
}
