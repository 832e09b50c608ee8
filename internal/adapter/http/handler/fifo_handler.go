package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/goportfolio/internal/adapter/http/dto"
	"github.com/iho/goportfolio/internal/usecase"
)

// FIFOService runs a stateless FIFO calculation.
type FIFOService interface {
	CalculateFIFO(input usecase.CalculateFIFOInput) (*usecase.FIFOResult, error)
}

// FIFOHandler serves ad-hoc FIFO calculations over posted trade lists.
type FIFOHandler struct {
	fifo FIFOService
}

// NewFIFOHandler creates a new FIFOHandler.
func NewFIFOHandler(fifo FIFOService) *FIFOHandler {
	return &FIFOHandler{fifo: fifo}
}

// Calculate returns the FIFO result for the posted history of one asset.
func (h *FIFOHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req dto.FIFORequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid fifo request", err.Error())
		return
	}

	result, err := h.fifo.CalculateFIFO(input)
	if err != nil {
		writeDomainError(w, "fifo calculation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
