package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eversky0902-ops/damda-api/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeInvalidDate         = "invalid_date"
	codeInvalidID           = "invalid_id"
	codeDaycareIDRequired   = "daycare_id_required"
	codeEmptyCart           = "empty_cart"
	codeInvalidParticipants = "invalid_participant_count"
	codeSlotHeld            = "slot_held"
	codeSlotReserved        = "already_reserved"
	codeProductNotFound     = "product_not_found"
	codeReservationNotFound = "reservation_not_found"
	codeProductNameRequired = "product_name_required"
	codeInvalidPrice        = "invalid_price"
	codeInvalidStatusChange = "invalid_status_change"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// Set when the failure is pinned to one cart line, so the UI can point
	// at the slot to change.
	ProductID    string `json:"product_id,omitempty"`
	ReservedDate string `json:"reserved_date,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps service errors to HTTP status and machine code.
// Contention is a typed 409, never a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}

	var slotErr *domain.SlotError
	if errors.As(err, &slotErr) {
		resp.ProductID = slotErr.ProductID
		resp.ReservedDate = slotErr.ReservedDate.Format("2006-01-02")
	}

	switch {
	case errors.Is(err, domain.ErrSlotHeld):
		resp.Code = codeSlotHeld
		writeErrorResponse(w, http.StatusConflict, resp)
	case errors.Is(err, domain.ErrSlotReserved):
		resp.Code = codeSlotReserved
		writeErrorResponse(w, http.StatusConflict, resp)
	case errors.Is(err, domain.ErrProductNotFound):
		resp.Code = codeProductNotFound
		writeErrorResponse(w, http.StatusNotFound, resp)
	case errors.Is(err, domain.ErrReservationNotFound):
		resp.Code = codeReservationNotFound
		writeErrorResponse(w, http.StatusNotFound, resp)
	case errors.Is(err, domain.ErrDaycareIDRequired):
		resp.Code = codeDaycareIDRequired
		writeErrorResponse(w, http.StatusUnauthorized, resp)
	case errors.Is(err, domain.ErrEmptyCart):
		resp.Code = codeEmptyCart
		writeErrorResponse(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrInvalidParticipants):
		resp.Code = codeInvalidParticipants
		writeErrorResponse(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrInvalidDate):
		resp.Code = codeInvalidDate
		writeErrorResponse(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrInvalidID):
		resp.Code = codeInvalidID
		writeErrorResponse(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrProductNameRequired):
		resp.Code = codeProductNameRequired
		writeErrorResponse(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrInvalidPrice):
		resp.Code = codeInvalidPrice
		writeErrorResponse(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrInvalidStatusChange):
		resp.Code = codeInvalidStatusChange
		writeErrorResponse(w, http.StatusConflict, resp)
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
