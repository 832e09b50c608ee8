package usecase

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/goportfolio/internal/domain"
)

// FIFOResult is the per-asset outcome of a FIFO pass.
type FIFOResult struct {
	Asset      domain.AssetSymbol `json:"asset,omitempty"`
	Amount     decimal.Decimal    `json:"amount"`
	Cost       decimal.Decimal    `json:"cost"`
	Value      decimal.Decimal    `json:"value"`
	Realised   decimal.Decimal    `json:"realised"`
	Unrealised decimal.Decimal    `json:"unrealised"`
	TotalBuys  decimal.Decimal    `json:"total_buys"`
	Oversells  []OversellEvent    `json:"oversells,omitempty"`
}

func zeroFIFOResult() *FIFOResult {
	return &FIFOResult{
		Amount:     decimal.Zero,
		Cost:       decimal.Zero,
		Value:      decimal.Zero,
		Realised:   decimal.Zero,
		Unrealised: decimal.Zero,
		TotalBuys:  decimal.Zero,
	}
}

// FIFOCalculationService computes holdings and P&L of one asset by consuming
// purchase lots oldest first.
//
// Known quirks kept on purpose:
//   - Completed deposits are queued ahead of every trade, in the order given,
//     whatever their timestamps.
//   - When a sell exceeds the queued lots by at least OversellSyntheticThreshold
//     the uncovered part is realized at zero cost AND a synthetic lot of the
//     same size is queued for later sells. The same units can therefore show
//     up both as realized gain and as a later position.
type FIFOCalculationService struct {
	cfg CalculationConfig
	log zerolog.Logger
}

// NewFIFOCalculationService creates a new FIFOCalculationService.
func NewFIFOCalculationService(cfg CalculationConfig, log zerolog.Logger) *FIFOCalculationService {
	return &FIFOCalculationService{
		cfg: cfg,
		log: log.With().Str("service", "fifo").Logger(),
	}
}

// Calculate runs FIFO over the trades of a single asset. Trades may be in any
// order; deposits are used only when there is at least one trade.
func (s *FIFOCalculationService) Calculate(trades []domain.Trade, currentPrice domain.Money, deposits []domain.Deposit) (*FIFOResult, error) {
	if len(trades) == 0 {
		return zeroFIFOResult(), nil
	}

	asset, err := s.validate(trades, currentPrice, deposits)
	if err != nil {
		return nil, err
	}

	precision := s.cfg.precision()
	currency := currentPrice.Currency()
	queue := &lotQueue{}

	for i, d := range deposits {
		if !d.Counts() {
			continue
		}

		lot, err := s.depositLot(i, d, asset, currency)
		if err != nil {
			return nil, err
		}
		queue.push(lot)
	}

	sorted := make([]domain.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	result := zeroFIFOResult()
	result.Asset = asset

	for i, trade := range sorted {
		switch trade.Type {
		case domain.TradeTypeBuy:
			totalCost, err := trade.TotalCost()
			if err != nil {
				return nil, err
			}

			lot, err := domain.NewPurchaseLot(lotID("buy", trade.ID, i), trade.Amount, totalCost, trade.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("buy %s: %w", trade.ID, err)
			}

			queue.push(lot)
			result.TotalBuys = result.TotalBuys.Add(totalCost.Amount())

		case domain.TradeTypeSell:
			realized, shortfall, err := s.sell(queue, trade, precision)
			if err != nil {
				return nil, err
			}

			result.Realised = result.Realised.Add(realized)

			if shortfall.IsPositive() {
				event, err := s.handleOversell(queue, trade, i, shortfall)
				if err != nil {
					return nil, err
				}
				result.Oversells = append(result.Oversells, event)
			}
		}
	}

	result.Amount, result.Cost = queue.totals()
	result.Value = result.Amount.Mul(currentPrice.Amount())
	result.Unrealised = result.Value.Sub(result.Cost)

	return result, nil
}

// sell consumes lots for one sell trade and returns the realized P&L and the
// amount that no lot covered.
func (s *FIFOCalculationService) sell(queue *lotQueue, trade domain.Trade, precision int32) (realized, shortfall decimal.Decimal, err error) {
	proceeds, err := trade.Proceeds()
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("sell %s: %w", trade.ID, err)
	}

	remaining := trade.Amount.Amount()
	consumedCost := decimal.Zero

	for remaining.IsPositive() && !queue.empty() {
		lot := queue.front()
		lotAmount := lot.Amount().Amount()

		if lotAmount.LessThanOrEqual(remaining) {
			consumedCost = consumedCost.Add(lot.Cost().Amount())
			remaining = remaining.Sub(lotAmount)
			queue.popFront()
			continue
		}

		part, err := domain.NewAssetAmount(remaining, trade.Asset)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		cost, err := lot.CostOf(part, precision)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		rest, err := lot.Consume(part, precision)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}

		consumedCost = consumedCost.Add(cost.Amount())
		queue.replaceFront(rest)
		remaining = decimal.Zero
	}

	return proceeds.Amount().Sub(consumedCost), remaining, nil
}

func (s *FIFOCalculationService) handleOversell(queue *lotQueue, trade domain.Trade, index int, shortfall decimal.Decimal) (OversellEvent, error) {
	action := ClassifyOversell(shortfall)
	event := OversellEvent{
		TradeID:   trade.ID,
		Timestamp: trade.Timestamp,
		Shortfall: shortfall,
		Action:    action,
	}

	switch action {
	case OversellIgnore:
		return event, nil

	case OversellWarn:
		s.log.Warn().
			Str("asset", trade.Asset.String()).
			Str("trade_id", trade.ID).
			Str("shortfall", shortfall.String()).
			Msg("sell exceeds available lots, ignoring shortfall")
		return event, nil
	}

	amount, err := domain.NewAssetAmount(shortfall, trade.Asset)
	if err != nil {
		return event, err
	}

	ts := trade.Timestamp - 1
	if ts < 0 {
		ts = 0
	}

	lot, err := domain.NewPurchaseLot(lotID("synthetic", trade.ID, index), amount, trade.Price.Mul(shortfall), ts)
	if err != nil {
		return event, err
	}
	queue.push(lot)

	s.log.Warn().
		Str("asset", trade.Asset.String()).
		Str("trade_id", trade.ID).
		Str("shortfall", shortfall.String()).
		Str("price", trade.Price.Amount().String()).
		Msg("sell exceeds available lots, queued synthetic lot for missing transfer")

	return event, nil
}

func (s *FIFOCalculationService) depositLot(index int, d domain.Deposit, asset domain.AssetSymbol, currency string) (domain.PurchaseLot, error) {
	amount, err := domain.NewAssetAmount(d.Amount, asset)
	if err != nil {
		return domain.PurchaseLot{}, err
	}

	cost, err := domain.ZeroMoney(currency)
	if err != nil {
		return domain.PurchaseLot{}, err
	}

	return domain.NewPurchaseLot(lotID("deposit", d.ID, index), amount, cost, d.Timestamp)
}

// validate checks that everything belongs to one asset and one quote currency
// before any lot is built.
func (s *FIFOCalculationService) validate(trades []domain.Trade, currentPrice domain.Money, deposits []domain.Deposit) (domain.AssetSymbol, error) {
	asset := trades[0].Asset

	for _, t := range trades {
		if t.Asset != asset {
			return "", fmt.Errorf("%w: trades for %s and %s", domain.ErrAssetMismatch, asset, t.Asset)
		}

		if err := t.Validate(); err != nil {
			return "", err
		}

		if t.Price.Currency() != currentPrice.Currency() {
			return "", fmt.Errorf("%w: trade %s priced in %s, current price in %s",
				domain.ErrCurrencyMismatch, t.ID, t.Price.Currency(), currentPrice.Currency())
		}
	}

	for _, d := range deposits {
		if d.Asset != asset {
			return "", fmt.Errorf("%w: deposit of %s for %s trades", domain.ErrAssetMismatch, d.Asset, asset)
		}
	}

	return asset, nil
}

func lotID(kind, sourceID string, index int) string {
	if sourceID == "" {
		sourceID = strconv.Itoa(index)
	}
	return kind + ":" + sourceID
}
