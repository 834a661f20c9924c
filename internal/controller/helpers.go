package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
)

var validate = validator.New()

// codeMappings maps saga codes to HTTP statuses and wire-level codes.
var codeMappings = map[domainErrors.Code]struct {
	status int
	code   string
}{
	domainErrors.CodeInvalidRequest:            {http.StatusBadRequest, "invalid_request"},
	domainErrors.CodeProductNotFound:           {http.StatusNotFound, "product_not_found"},
	domainErrors.CodeStockNotEnough:            {http.StatusUnprocessableEntity, "stock_not_enough"},
	domainErrors.CodeAccountVerificationFailed: {http.StatusUnprocessableEntity, "account_verification_failed"},
	domainErrors.CodeDownstreamTriggerError:    {http.StatusBadGateway, "downstream_trigger_error"},
	domainErrors.CodeStoreError:                {http.StatusInternalServerError, "store_error"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var validationErr *domainErrors.ValidationError
	if errors.As(err, &validationErr) {
		resp.Code = "validation_error"
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	switch {
	case errors.Is(err, domainErrors.ErrTransactionNotFound):
		resp.Code = "transaction_not_found"
		writeJSON(w, http.StatusNotFound, resp)
		return
	case errors.Is(err, domainErrors.ErrInvalidStateTransition):
		resp.Code = "conflict"
		writeJSON(w, http.StatusConflict, resp)
		return
	}

	var sagaErr *domainErrors.SagaError
	if errors.As(err, &sagaErr) {
		m, ok := codeMappings[sagaErr.Code]
		if !ok {
			m = codeMappings[domainErrors.CodeStoreError]
		}
		resp.Code = m.code
		if m.status == http.StatusInternalServerError {
			// Never leak store internals to the client.
			resp.Error = "internal server error"
			log.Error().Err(err).Msg("store fault in handler")
		}
		writeJSON(w, m.status, resp)
		return
	}

	log.Error().Err(err).Msg("unhandled error in handler")
	resp.Code = "internal_error"
	resp.Error = "internal server error"
	writeJSON(w, http.StatusInternalServerError, resp)
}

func decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domainErrors.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			return domainErrors.NewValidationError(ve[0].Field(), ve[0].Tag()+" validation failed")
		}
		return domainErrors.NewValidationError("body", err.Error())
	}
	return nil
}
