package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/app"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

type CatalogManager interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	SetSoldOut(ctx context.Context, id string, soldOut bool) error
}

// CalendarReader serves the availability views under /products.
type CalendarReader interface {
	UnavailableDates(ctx context.Context, daycareID, productID string) ([]time.Time, error)
	AvailableProductIDs(ctx context.Context, daycareID string, date time.Time, candidateIDs []string) ([]string, error)
}

// HandleProducts serves the product collection: list and create.
func HandleProducts(svc CatalogManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			products, err := svc.ListProducts(r.Context())
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := productsResponse{Products: make([]productResponse, 0, len(products))}
			for _, p := range products {
				resp.Products = append(resp.Products, toProductResponse(p))
			}
			writeJSON(w, http.StatusOK, resp)

		case http.MethodPost:
			var req createProductRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}

			product, err := svc.CreateProduct(r.Context(), app.CreateProductInput{
				VendorID: req.VendorID,
				Name:     req.Name,
				Price:    req.Price,
			})
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, toProductResponse(product))

		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleProductSubroutes serves /products/{id}, /products/{id}/sold-out and
// /products/{id}/unavailable-dates.
func HandleProductSubroutes(svc CatalogManager, calendar CalendarReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, rest, ok := splitProductPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch rest {
		case "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			product, err := svc.GetProduct(r.Context(), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toProductResponse(product))

		case "sold-out":
			if r.Method != http.MethodPatch {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req soldOutRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			if err := svc.SetSoldOut(r.Context(), id, req.SoldOut); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		case "unavailable-dates":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			dates, err := calendar.UnavailableDates(r.Context(), daycareFromContext(r.Context()), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			resp := unavailableDatesResponse{Dates: make([]string, 0, len(dates))}
			for _, d := range dates {
				resp.Dates = append(resp.Dates, d.Format(time.DateOnly))
			}
			writeJSON(w, http.StatusOK, resp)

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

// HandleAvailableProducts filters products bookable on a date, for search
// and calendar views.
func HandleAvailableProducts(calendar CalendarReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		date, err := parseDate(r.URL.Query().Get("date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid date")
			return
		}

		var candidates []string
		if raw := r.URL.Query().Get("product_ids"); raw != "" {
			candidates = strings.Split(raw, ",")
		}

		ids, err := calendar.AvailableProductIDs(r.Context(), daycareFromContext(r.Context()), date, candidates)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, availableProductsResponse{ProductIDs: ids})
	}
}

func splitProductPath(path string) (id, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/products/")
	if trimmed == path || trimmed == "" {
		return "", "", false
	}
	id, rest, _ = strings.Cut(trimmed, "/")
	return id, rest, true
}

type createProductRequest struct {
	VendorID string `json:"vendor_id"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
}

type soldOutRequest struct {
	SoldOut bool `json:"sold_out"`
}

type productResponse struct {
	ID        string    `json:"id"`
	VendorID  string    `json:"vendor_id"`
	Name      string    `json:"name"`
	Price     int       `json:"price"`
	IsSoldOut bool      `json:"is_sold_out"`
	CreatedAt time.Time `json:"created_at"`
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:        p.ID,
		VendorID:  p.VendorID,
		Name:      p.Name,
		Price:     p.Price,
		IsSoldOut: p.IsSoldOut,
		CreatedAt: p.CreatedAt,
	}
}

type productsResponse struct {
	Products []productResponse `json:"products"`
}

type unavailableDatesResponse struct {
	Dates []string `json:"dates"`
}

type availableProductsResponse struct {
	ProductIDs []string `json:"product_ids"`
}
