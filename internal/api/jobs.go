package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/printprice/internal/jobs"
	"github.com/Simplici0/printprice/internal/sales"
)

func (s *Server) handleJobsList(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, s.pageSize)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.jobs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, list)
}

func (s *Server) handleJobsCreate(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	in, err := s.draftRequest(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.jobs.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusCreated, job)
}

func (s *Server) handleJobsGet(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, job)
}

// jobPatchRequest keeps inputs raw so they can be decoded over the stored
// inputs; fields missing from the body keep their saved values.
type jobPatchRequest struct {
	Name   *string         `json:"name"`
	Status *jobs.Status    `json:"status" validate:"omitempty,oneof=pending completed"`
	Inputs json.RawMessage `json:"inputs"`
}

func (s *Server) handleJobsUpdate(w http.ResponseWriter, r *http.Request) {
	var req jobPatchRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	patch := jobs.Patch{Name: req.Name, Status: req.Status}

	if len(req.Inputs) > 0 && !bytes.Equal(bytes.TrimSpace(req.Inputs), []byte("null")) {
		stored, err := s.jobs.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		in := stored.Inputs
		if err := json.Unmarshal(req.Inputs, &in); err != nil {
			s.writeError(w, r, badRequest("invalid inputs", err))
			return
		}
		patch.Inputs = &in
	}

	job, err := s.jobs.Update(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, job)
}

func (s *Server) handleJobsToggle(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.ToggleStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, job)
}

func (s *Server) handleJobsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleJobsText(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(jobs.Text(job)))
}

type jobProductRequest struct {
	Stock int `json:"stock" validate:"gte=0"`
}

// handleJobsToProduct adds a saved job to the product inventory at its unit
// price and production cost.
func (s *Server) handleJobsToProduct(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req jobProductRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	p := sales.ProductFromJob(job.Name, job.Results, job.Inputs.TaxRate.Float())
	p.Stock = req.Stock
	created, err := s.sales.CreateProduct(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusCreated, created)
}
