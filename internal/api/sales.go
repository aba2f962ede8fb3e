package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/printprice/internal/sales"
)

func (s *Server) handleProductsList(w http.ResponseWriter, r *http.Request) {
	products, err := s.sales.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, products)
}

func (s *Server) handleProductsCreate(w http.ResponseWriter, r *http.Request) {
	var p sales.Product
	if err := s.decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.sales.CreateProduct(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusCreated, created)
}

func (s *Server) handleProductsGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.sales.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, p)
}

func (s *Server) handleProductsUpdate(w http.ResponseWriter, r *http.Request) {
	var p sales.Product
	if err := s.decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := s.sales.UpdateProduct(r.Context(), chi.URLParam(r, "id"), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, updated)
}

func (s *Server) handleProductsDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sales.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutItem struct {
	Kind     sales.Kind `json:"kind" validate:"required,oneof=product job"`
	RefID    string     `json:"ref_id" validate:"required"`
	Quantity int        `json:"quantity" validate:"gte=0"`
}

type checkoutRequest struct {
	PaymentMethod string         `json:"payment_method" validate:"required,oneof=cash gcash card other"`
	Shipping      float64        `json:"shipping" validate:"gte=0"`
	Items         []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

// buildCart prices the requested items from the stores. Job items with no
// quantity use the job's batch quantity; product items default to one.
func (s *Server) buildCart(r *http.Request, items []checkoutItem) (sales.Cart, error) {
	var cart sales.Cart
	for _, item := range items {
		var line sales.Line
		switch item.Kind {
		case sales.KindProduct:
			p, err := s.sales.GetProduct(r.Context(), item.RefID)
			if err != nil {
				return sales.Cart{}, err
			}
			qty := item.Quantity
			if qty == 0 {
				qty = 1
			}
			line = sales.LineFromProduct(p, qty)
		case sales.KindJob:
			job, err := s.jobs.Get(r.Context(), item.RefID)
			if err != nil {
				return sales.Cart{}, err
			}
			line = sales.LineFromJob(job, item.Quantity)
		}
		if err := cart.Add(line); err != nil {
			return sales.Cart{}, err
		}
	}
	return cart, nil
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cart, err := s.buildCart(r, req.Items)
	if err != nil {
		s.checkoutFailed(w, r, err)
		return
	}
	sale, err := s.sales.Checkout(r.Context(), cart, req.PaymentMethod, req.Shipping)
	if err != nil {
		s.checkoutFailed(w, r, err)
		return
	}
	s.metrics.ObserveSale("ok", sale.Totals.Revenue)
	data(w, http.StatusCreated, sale)
}

func (s *Server) checkoutFailed(w http.ResponseWriter, r *http.Request, err error) {
	result := "error"
	if errors.Is(err, sales.ErrInsufficientStock) {
		result = "insufficient_stock"
	}
	s.metrics.ObserveSale(result, 0)
	s.writeError(w, r, err)
}

func (s *Server) handleSalesList(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.sales.ListSales(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, list)
}

func (s *Server) handleSalesUpdate(w http.ResponseWriter, r *http.Request) {
	var patch sales.SalePatch
	if err := s.decode(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	sale, err := s.sales.UpdateSale(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data(w, http.StatusOK, sale)
}

func (s *Server) handleSalesDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sales.DeleteSale(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
