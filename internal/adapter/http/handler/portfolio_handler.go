package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/goportfolio/internal/adapter/http/dto"
	"github.com/iho/goportfolio/internal/domain"
	"github.com/iho/goportfolio/internal/usecase"
)

// PortfolioService defines the behavior needed by PortfolioHandler.
type PortfolioService interface {
	CreatePortfolio(ctx context.Context, input usecase.CreatePortfolioInput) (*domain.Portfolio, error)
	GetPortfolio(ctx context.Context, id string) (*domain.Portfolio, error)
	ListPortfolios(ctx context.Context, limit, offset int) ([]*domain.Portfolio, error)
	GetSummary(ctx context.Context, id string) (*usecase.PortfolioSummary, error)
	GetHoldings(ctx context.Context, id string) ([]usecase.HoldingRecord, error)
	RecalculatePortfolio(ctx context.Context, id string) (*usecase.RecalculationResult, error)
	RecordTrade(ctx context.Context, portfolioID string, input usecase.RecordTradeInput) (*domain.Trade, error)
	RecordDeposit(ctx context.Context, portfolioID string, deposit domain.Deposit) (*domain.Deposit, error)
}

// PortfolioHandler handles portfolio-related HTTP requests.
type PortfolioHandler struct {
	portfolioUC PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(portfolioUC PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioUC: portfolioUC}
}

// Create creates an empty portfolio.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	portfolio, err := h.portfolioUC.CreatePortfolio(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, "failed to create portfolio", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PortfolioFromDomain(portfolio))
}

// Get retrieves the stored snapshot of a portfolio.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing portfolio ID", "")
		return
	}

	portfolio, err := h.portfolioUC.GetPortfolio(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get portfolio", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PortfolioFromDomain(portfolio))
}

// List lists portfolios.
func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	portfolios, err := h.portfolioUC.ListPortfolios(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list portfolios", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ListPortfoliosResponse{
		Portfolios: dto.PortfoliosFromDomain(portfolios),
		Limit:      limit,
		Offset:     offset,
	})
}

// Summary returns the portfolio summary record.
func (h *PortfolioHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.portfolioUC.GetSummary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get summary", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Holdings returns the holding records, largest allocation first.
func (h *PortfolioHandler) Holdings(w http.ResponseWriter, r *http.Request) {
	holdings, err := h.portfolioUC.GetHoldings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get holdings", err)
		return
	}

	writeJSON(w, http.StatusOK, holdings)
}

// Recalculate rebuilds the portfolio from its stored history.
func (h *PortfolioHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.portfolioUC.RecalculatePortfolio(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to recalculate portfolio", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecalculationFromUseCase(result))
}

// RecordTrade stores a trade of the portfolio.
func (h *PortfolioHandler) RecordTrade(w http.ResponseWriter, r *http.Request) {
	var req dto.TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade", err.Error())
		return
	}

	trade, err := h.portfolioUC.RecordTrade(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeDomainError(w, "failed to record trade", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TradeFromDomain(trade))
}

// RecordDeposit stores a deposit of the portfolio.
func (h *PortfolioHandler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	deposit, err := req.ToDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deposit", err.Error())
		return
	}

	stored, err := h.portfolioUC.RecordDeposit(r.Context(), chi.URLParam(r, "id"), deposit)
	if err != nil {
		writeDomainError(w, "failed to record deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DepositFromDomain(stored))
}
