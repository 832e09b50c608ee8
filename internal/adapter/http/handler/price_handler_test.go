package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/goportfolio/internal/adapter/http/dto"
	"github.com/iho/goportfolio/internal/domain"
)

type priceServiceStub struct {
	setFn func(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error
}

func (s *priceServiceStub) SetPrice(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
	return s.setFn(ctx, symbol, price)
}

func TestPriceHandler_Set(t *testing.T) {
	var (
		gotSymbol domain.AssetSymbol
		gotPrice  domain.Money
	)
	handler := NewPriceHandler(&priceServiceStub{
		setFn: func(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
			gotSymbol, gotPrice = symbol, price
			return nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/prices/btc", strings.NewReader(`{"price":"65000.5","currency":"usd"}`)), "symbol", "btc")
	rec := httptest.NewRecorder()
	handler.Set(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotSymbol != "BTC" || !gotPrice.Equal(domain.MustMoney("65000.5", "USD")) {
		t.Fatalf("unexpected call: %s %s", gotSymbol, gotPrice)
	}

	var resp dto.PriceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Symbol != "BTC" || resp.Currency != "USD" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestPriceHandler_Set_Errors(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		body   string
		err    error
		status int
	}{
		{"blank symbol", " ", `{"price":"1","currency":"USD"}`, nil, http.StatusBadRequest},
		{"malformed body", "BTC", `{`, nil, http.StatusBadRequest},
		{"bad currency", "BTC", `{"price":"1","currency":"X"}`, nil, http.StatusBadRequest},
		{"non-positive price", "BTC", `{"price":"0","currency":"USD"}`, domain.ErrInvalidPrice, http.StatusBadRequest},
		{"store failure", "BTC", `{"price":"1","currency":"USD"}`, errors.New("redis down"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewPriceHandler(&priceServiceStub{
				setFn: func(ctx context.Context, symbol domain.AssetSymbol, price domain.Money) error {
					return tt.err
				},
			})

			req := withURLParam(httptest.NewRequest(http.MethodPut, "/prices/x", strings.NewReader(tt.body)), "symbol", tt.symbol)
			rec := httptest.NewRecorder()
			handler.Set(rec, req)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}
