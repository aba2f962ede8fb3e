package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/printprice/internal/capital"
	"github.com/Simplici0/printprice/internal/dashboard"
)

func (s *Server) handleCapitalList(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.capital.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, items)
}

func (s *Server) handleCapitalCreate(w http.ResponseWriter, r *http.Request) {
	it := capital.NewItem()
	if err := s.decode(w, r, &it); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.capital.Create(r.Context(), it)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusCreated, created)
}

func (s *Server) handleCapitalGet(w http.ResponseWriter, r *http.Request) {
	it, err := s.capital.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, it)
}

// handleCapitalUpdate decodes the body over the stored item, so omitted
// fields keep their values.
func (s *Server) handleCapitalUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	it, err := s.capital.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.decode(w, r, &it); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.capital.Update(r.Context(), id, it)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, updated)
}

func (s *Server) handleCapitalDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.capital.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sold, err := s.sales.ListSales(ctx, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	saved, err := s.jobs.List(ctx, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	spent, err := s.capital.List(ctx, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, dashboard.Compute(sold, saved, spent))
}
