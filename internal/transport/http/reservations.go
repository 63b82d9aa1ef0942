package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/domain"
)

type ReservationReader interface {
	Get(ctx context.Context, daycareID, id string) (domain.Reservation, error)
	ListForDaycare(ctx context.Context, daycareID string) ([]domain.Reservation, error)
	UpdateStatus(ctx context.Context, daycareID, id string, status domain.ReservationStatus, cancelReason string) error
}

// HandleReservations lists the caller's reservation history.
func HandleReservations(svc ReservationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		reservations, err := svc.ListForDaycare(r.Context(), daycareFromContext(r.Context()))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := reservationsResponse{Reservations: make([]reservationResponse, 0, len(reservations))}
		for _, res := range reservations {
			resp.Reservations = append(resp.Reservations, toReservationResponse(res))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// HandleReservationSubroutes serves /reservations/{id} and
// /reservations/{id}/status.
func HandleReservationSubroutes(svc ReservationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, rest, ok := splitReservationPath(r.URL.Path)
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
			res, err := svc.Get(r.Context(), daycareFromContext(r.Context()), id)
			if err != nil {
				writeDomainError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, toReservationResponse(res))

		case "status":
			if r.Method != http.MethodPatch {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			var req updateStatusRequest
			dec := json.NewDecoder(r.Body)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
				return
			}
			status := domain.ReservationStatus(req.Status)
			switch status {
			case domain.ReservationPaid, domain.ReservationConfirmed, domain.ReservationCompleted,
				domain.ReservationCancelled, domain.ReservationRefunded:
			default:
				writeError(w, http.StatusBadRequest, codeInvalidStatusChange, "unknown status: "+req.Status)
				return
			}
			if err := svc.UpdateStatus(r.Context(), daycareFromContext(r.Context()), id, status, req.CancelReason); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func splitReservationPath(path string) (id, rest string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/reservations/")
	if trimmed == path || trimmed == "" {
		return "", "", false
	}
	id, rest, _ = strings.Cut(trimmed, "/")
	return id, rest, true
}

type updateStatusRequest struct {
	Status       string `json:"status"`
	CancelReason string `json:"cancel_reason,omitempty"`
}

type reservationResponse struct {
	ID               string    `json:"id"`
	ReservationNo    string    `json:"reservation_no"`
	ProductID        string    `json:"product_id"`
	VendorID         string    `json:"vendor_id"`
	ReservedDate     string    `json:"reserved_date"`
	ReservedTime     string    `json:"reserved_time,omitempty"`
	ParticipantCount int       `json:"participant_count"`
	TotalAmount      int       `json:"total_amount"`
	Status           string    `json:"status"`
	CancelReason     string    `json:"cancel_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:               res.ID,
		ReservationNo:    res.ReservationNo,
		ProductID:        res.ProductID,
		VendorID:         res.VendorID,
		ReservedDate:     res.ReservedDate.Format(time.DateOnly),
		ReservedTime:     res.ReservedTime,
		ParticipantCount: res.ParticipantCount,
		TotalAmount:      res.TotalAmount,
		Status:           string(res.Status),
		CancelReason:     res.CancelReason,
		CreatedAt:        res.CreatedAt,
	}
}

type reservationsResponse struct {
	Reservations []reservationResponse `json:"reservations"`
}
