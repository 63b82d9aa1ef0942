package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eversky0902-ops/damda-api/internal/domain"
)

// HoldManager is the slice of the hold service the checkout routes need.
type HoldManager interface {
	AcquireHolds(ctx context.Context, daycareID string, slots []domain.Slot) ([]domain.Hold, error)
	ReleaseHolds(ctx context.Context, daycareID string, slots []domain.Slot) error
	ReleaseAllForDaycare(ctx context.Context, daycareID string) error
	HeldByOther(ctx context.Context, daycareID string, slot domain.Slot) (bool, error)
}

// HandleAcquireHolds claims every requested slot or none: a conflict on any
// line rolls the batch back and reports the failing slot.
func HandleAcquireHolds(svc HoldManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req holdItemsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		slots, ok := parseSlots(w, req.Items)
		if !ok {
			return
		}

		holds, err := svc.AcquireHolds(r.Context(), daycareFromContext(r.Context()), slots)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := holdsResponse{Holds: make([]holdResponse, 0, len(holds))}
		for _, h := range holds {
			resp.Holds = append(resp.Holds, holdResponse{
				ProductID:    h.ProductID,
				ReservedDate: h.ReservedDate.Format(time.DateOnly),
				ExpiresAt:    h.ExpiresAt,
			})
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// HandleReleaseHolds drops the caller's holds on the listed slots, or all of
// the caller's holds when "all" is set. Releasing nothing is fine.
func HandleReleaseHolds(svc HoldManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req releaseHoldsRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		daycareID := daycareFromContext(r.Context())
		if req.All {
			if err := svc.ReleaseAllForDaycare(r.Context(), daycareID); err != nil {
				writeDomainError(w, err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		slots, ok := parseSlots(w, req.Items)
		if !ok {
			return
		}
		if err := svc.ReleaseHolds(r.Context(), daycareID, slots); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleHoldStatus reports whether another daycare is currently checking out
// the slot. UI signaling only.
func HandleHoldStatus(svc HoldManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		productID := r.URL.Query().Get("product_id")
		if productID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "product_id is required")
			return
		}
		date, err := parseDate(r.URL.Query().Get("reserved_date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid reserved_date")
			return
		}

		held, err := svc.HeldByOther(r.Context(), daycareFromContext(r.Context()), domain.Slot{
			ProductID:    productID,
			ReservedDate: date,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, holdStatusResponse{HeldByOther: held})
	}
}

func parseSlots(w http.ResponseWriter, items []holdItemRequest) ([]domain.Slot, bool) {
	slots := make([]domain.Slot, 0, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			writeError(w, http.StatusBadRequest, codeInvalidID, "product_id is required")
			return nil, false
		}
		date, err := parseDate(it.ReservedDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDate, "invalid reserved_date: "+it.ReservedDate)
			return nil, false
		}
		slots = append(slots, domain.Slot{ProductID: it.ProductID, ReservedDate: date})
	}
	return slots, true
}

type holdItemRequest struct {
	ProductID    string `json:"product_id"`
	ReservedDate string `json:"reserved_date"`
}

type holdItemsRequest struct {
	Items []holdItemRequest `json:"items"`
}

type releaseHoldsRequest struct {
	Items []holdItemRequest `json:"items,omitempty"`
	All   bool              `json:"all,omitempty"`
}

type holdResponse struct {
	ProductID    string    `json:"product_id"`
	ReservedDate string    `json:"reserved_date"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type holdsResponse struct {
	Holds []holdResponse `json:"holds"`
}

type holdStatusResponse struct {
	HeldByOther bool `json:"held_by_other"`
}
