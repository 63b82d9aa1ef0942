package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/app"
	"github.com/eversky0902-ops/damda-api/internal/domain"
)

// CartChecker is the minimal interface needed for the pre-payment
// availability check.
type CartChecker interface {
	CheckCart(ctx context.Context, daycareID string, lines []domain.CartLine) ([]domain.UnavailableLine, error)
}

// HandleCheckAvailability classifies cart lines before checkout. Advisory
// only: the hold acquisition is where exclusivity is actually decided.
func HandleCheckAvailability(svc CartChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req checkAvailabilityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		lines := make([]domain.CartLine, 0, len(req.Lines))
		for _, l := range req.Lines {
			date, err := parseDate(l.ReservedDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid reserved_date: "+l.ReservedDate)
				return
			}
			lines = append(lines, domain.CartLine{
				ProductID:        l.ProductID,
				ProductName:      l.ProductName,
				ReservedDate:     date,
				ReservedTime:     l.ReservedTime,
				ParticipantCount: l.ParticipantCount,
			})
		}

		unavailable, err := svc.CheckCart(r.Context(), daycareFromContext(r.Context()), lines)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := checkAvailabilityResponse{Unavailable: make([]unavailableLine, 0, len(unavailable))}
		for _, u := range unavailable {
			resp.Unavailable = append(resp.Unavailable, unavailableLine{
				ProductID:    u.ProductID,
				ProductName:  u.ProductName,
				ReservedDate: u.ReservedDate.Format(time.DateOnly),
				Reason:       string(u.Reason),
			})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// ReservationCreator commits paid cart lines to durable reservations.
type ReservationCreator interface {
	Create(ctx context.Context, daycareID string, in app.CreateReservationsInput) (app.CreateReservationsResult, error)
}

// HandleCompleteCheckout converts the paid cart into reservations. The
// caller supplies the payment approval it received from the provider; vendor
// identity is derived server-side from the products.
func HandleCompleteCheckout(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req completeCheckoutRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.PaymentMethod == "" || req.PaymentTID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "payment_method and payment_tid are required")
			return
		}

		items := make([]app.ReservationItem, 0, len(req.Items))
		for _, it := range req.Items {
			date, err := parseDate(it.ReservedDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid reserved_date: "+it.ReservedDate)
				return
			}
			items = append(items, app.ReservationItem{
				ProductID:        it.ProductID,
				ReservedDate:     date,
				ReservedTime:     it.ReservedTime,
				ParticipantCount: it.ParticipantCount,
			})
		}

		result, err := svc.Create(r.Context(), daycareFromContext(r.Context()), app.CreateReservationsInput{
			Items:         items,
			PaymentMethod: req.PaymentMethod,
			PaymentTID:    req.PaymentTID,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, completeCheckoutResponse{
			OrderNo:       result.OrderNo,
			ReservationID: result.ReservationID,
		})
	}
}

type cartLineRequest struct {
	ProductID        string `json:"product_id"`
	ProductName      string `json:"product_name"`
	ReservedDate     string `json:"reserved_date"`
	ReservedTime     string `json:"reserved_time,omitempty"`
	ParticipantCount int    `json:"participant_count"`
}

type checkAvailabilityRequest struct {
	Lines []cartLineRequest `json:"lines"`
}

type unavailableLine struct {
	ProductID    string `json:"product_id"`
	ProductName  string `json:"product_name"`
	ReservedDate string `json:"reserved_date"`
	Reason       string `json:"reason"`
}

type checkAvailabilityResponse struct {
	Unavailable []unavailableLine `json:"unavailable"`
}

type checkoutItemRequest struct {
	ProductID        string `json:"product_id"`
	ReservedDate     string `json:"reserved_date"`
	ReservedTime     string `json:"reserved_time,omitempty"`
	ParticipantCount int    `json:"participant_count"`
}

type completeCheckoutRequest struct {
	Items         []checkoutItemRequest `json:"items"`
	PaymentMethod string                `json:"payment_method"`
	PaymentTID    string                `json:"payment_tid"`
}

type completeCheckoutResponse struct {
	OrderNo       string `json:"order_no"`
	ReservationID string `json:"reservation_id"`
}

func parseDate(v string) (time.Time, error) {
	return time.Parse(time.DateOnly, v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
