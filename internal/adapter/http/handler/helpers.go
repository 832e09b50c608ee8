package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/iho/goportfolio/internal/adapter/http/dto"
	"github.com/iho/goportfolio/internal/domain"
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

// writeDomainError writes err with the status mapped from its sentinel.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, mapDomainError(err), message, err.Error())
}

var validationErrors = []error{
	domain.ErrInvalidCurrency,
	domain.ErrCurrencyMismatch,
	domain.ErrInvalidSymbol,
	domain.ErrNegativeAmount,
	domain.ErrAssetMismatch,
	domain.ErrInvalidTimestamp,
	domain.ErrInvalidTradeType,
	domain.ErrInvalidAmount,
	domain.ErrInvalidPrice,
	domain.ErrInvalidDepositStatus,
	domain.ErrInvalidName,
	domain.ErrInvalidFee,
	domain.ErrMoneyUnderflow,
	domain.ErrAmountUnderflow,
	domain.ErrNegativeLotCost,
	domain.ErrZeroLotAmount,
	domain.ErrInsufficientLot,
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrPortfolioNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateTrade):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDuplicateDeposit):
		return http.StatusConflict
	}

	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}
