package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/splitsync/internal/adapter/http/dto"
	"github.com/iho/splitsync/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status mapDomainError picks.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrGroupNotFound),
		errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrExpenseNotFound),
		errors.Is(err, domain.ErrSettlementNotFound),
		errors.Is(err, domain.ErrSyncMetadataNotFound),
		errors.Is(err, domain.ErrRemoteNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidPercentageSum),
		errors.Is(err, domain.ErrNoParticipants),
		errors.Is(err, domain.ErrSplitMismatch),
		errors.Is(err, domain.ErrTooSmallToSplit),
		errors.Is(err, domain.ErrUnknownExpense),
		errors.Is(err, domain.ErrSelfSettlement),
		errors.Is(err, domain.ErrNotGroupMember),
		errors.Is(err, domain.ErrInvalidGroupName),
		errors.Is(err, domain.ErrInvalidDescription),
		errors.Is(err, domain.ErrAmountTooLarge),
		errors.Is(err, domain.ErrAmountTooSmall),
		errors.Is(err, domain.ErrTooManyDecimals),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrInvalidIDFormat),
		errors.Is(err, domain.ErrInvalidSnapshot):
		return http.StatusBadRequest

	case errors.Is(err, domain.ErrDuplicateMember),
		errors.Is(err, domain.ErrIllegalSettlementTransition),
		errors.Is(err, domain.ErrIllegalSyncTransition),
		errors.Is(err, domain.ErrVersionRegression),
		errors.Is(err, domain.ErrSyncInProgress),
		errors.Is(err, domain.ErrSyncConflict),
		errors.Is(err, domain.ErrSyncDisabled):
		return http.StatusConflict

	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrRemoteForbidden):
		return http.StatusForbidden

	case errors.Is(err, domain.ErrRemoteTransient):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// parseBoolQuery parses a boolean query parameter with a default value.
func parseBoolQuery(r *http.Request, key string, defaultValue bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultValue
	}
	return b
}
