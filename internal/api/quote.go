package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/Simplici0/printprice/internal/catalog"
	"github.com/Simplici0/printprice/internal/pricing"
	"github.com/Simplici0/printprice/internal/settings"
	"github.com/Simplici0/printprice/internal/slicer"
)

const maxUploadBytes = 64 << 20

// quoteRequest is a job decoded over the current draft. Preset ids, when
// given, override the matching costs in the body.
type quoteRequest struct {
	pricing.JobInputs
	catalog.Selection
}

type quoteResponse struct {
	Inputs  pricing.JobInputs `json:"inputs"`
	Results pricing.Result    `json:"results"`
	Priced  bool              `json:"priced"`
}

// draftRequest decodes r's body over the resolved draft and applies presets.
func (s *Server) draftRequest(w http.ResponseWriter, r *http.Request, req *quoteRequest) (pricing.JobInputs, error) {
	draft, err := s.settings.Draft(r.Context())
	if err != nil {
		return pricing.JobInputs{}, err
	}
	req.JobInputs = draft
	if err := s.decode(w, r, req); err != nil {
		return pricing.JobInputs{}, err
	}
	return s.applySelection(r, req.JobInputs, req.Selection)
}

func (s *Server) applySelection(r *http.Request, in pricing.JobInputs, sel catalog.Selection) (pricing.JobInputs, error) {
	if sel == (catalog.Selection{}) || s.catalog == nil {
		return in, nil
	}
	presets, err := s.catalog.Resolve(r.Context(), sel)
	if err != nil {
		return pricing.JobInputs{}, err
	}
	return catalog.ApplyPresets(in, presets), nil
}

func (s *Server) quote(in pricing.JobInputs) quoteResponse {
	res := pricing.Compute(in)
	s.metrics.ObserveQuote(res.Priced())
	return quoteResponse{Inputs: in, Results: res, Priced: res.Priced()}
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	in, err := s.draftRequest(w, r, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, s.quote(in))
}

type priceRequest struct {
	quoteRequest
	Price *float64      `json:"price" validate:"required,gte=0"`
	Scope pricing.Scope `json:"scope" validate:"omitempty,oneof=unit batch"`
}

// handleQuotePrice solves the markup that yields the requested listing price.
func (s *Server) handleQuotePrice(w http.ResponseWriter, r *http.Request) {
	draft, err := s.settings.Draft(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req := priceRequest{quoteRequest: quoteRequest{JobInputs: draft}}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := s.applySelection(r, req.JobInputs, req.Selection)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	scope := req.Scope
	if scope == "" {
		scope = pricing.ScopeUnit
	}
	updated, ok := pricing.ApplyListingPrice(in, *req.Price, scope)
	if !ok {
		s.writeError(w, r, unprocessable("NO_COST_BASIS", "a markup cannot be derived: production cost plus packaging must be positive"))
		return
	}
	data(w, http.StatusOK, s.quote(updated))
}

type slicerResponse struct {
	Metadata slicer.Metadata   `json:"metadata"`
	Inputs   pricing.JobInputs `json:"inputs"`
}

// handleSlicer reads time and weight from an uploaded G-code or 3MF file and
// returns them applied to the current draft.
func (s *Server) handleSlicer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, badRequest("multipart field \"file\" is required", err))
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, badRequest("read upload", err))
		return
	}

	meta, err := slicer.ParseFile(header.Filename, raw)
	if err != nil {
		if !errors.Is(err, slicer.ErrNoMetadata) {
			err = &Error{Code: "UNREADABLE_FILE", Message: err.Error(), Status: http.StatusUnprocessableEntity, Err: err}
		}
		s.writeError(w, r, err)
		return
	}

	draft, err := s.settings.Draft(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, slicerResponse{Metadata: meta, Inputs: meta.Apply(draft)})
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	bag, err := s.settings.Resolve(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, settings.Extract(settings.Draft(bag)))
}

func (s *Server) handleSettingsDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := s.settings.Draft(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, draft)
}

type settingsRequest struct {
	pricing.JobInputs
	Scope string `json:"scope" validate:"omitempty,oneof=local global"`
}

// handleSettingsPut stores the persistent fields of the body, decoded over the
// current draft, as local overrides or, with scope "global", as synced
// defaults.
func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	draft, err := s.settings.Draft(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req := settingsRequest{JobInputs: draft}
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if req.Scope == "global" {
		err = s.settings.Publish(r.Context(), req.JobInputs)
	} else {
		err = s.settings.SaveLocal(r.Context(), req.JobInputs)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, settings.Extract(req.JobInputs))
}
