package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goportfolio/internal/adapter/http/dto"
	"github.com/iho/goportfolio/internal/domain"
)

// PriceService records current asset prices.
type PriceService interface {
	SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error
}

// PriceHandler handles price updates.
type PriceHandler struct {
	prices PriceService
}

// NewPriceHandler creates a new PriceHandler.
func NewPriceHandler(prices PriceService) *PriceHandler {
	return &PriceHandler{prices: prices}
}

// Set stores the current price of the asset named in the path.
func (h *PriceHandler) Set(w http.ResponseWriter, r *http.Request) {
	symbol, err := domain.NewAssetSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid symbol", err.Error())
		return
	}

	var req dto.SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	price, err := req.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}

	if err := h.prices.SetPrice(r.Context(), symbol, price); err != nil {
		writeDomainError(w, "failed to set price", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PriceResponse{
		Symbol:   symbol.String(),
		Price:    price.Amount(),
		Currency: price.Currency(),
	})
}
