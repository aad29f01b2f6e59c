package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"crossarb/business/arbitrage/domain"
	"crossarb/internal/apperror"
)

// Default cost parameters. Fees are flat per side rather than per venue;
// the settlement estimate is a fixed unit cost priced in the settlement
// asset, not a live congestion reading.
var (
	DefaultFeeRate              = decimal.RequireFromString("0.001")  // 0.1% per side
	DefaultLeverageFeeRate      = decimal.RequireFromString("0.0009") // 0.09% of buy value
	DefaultSettlementUnitCost   = decimal.RequireFromString("0.005")  // settlement asset units
	DefaultSettlementAssetPrice = decimal.NewFromInt(2000)            // quote units per settlement asset
)

var two = decimal.NewFromInt(2)

// ProfitModel turns a raw price gap into a priced opportunity by deducting
// venue fees, the settlement cost estimate, and the leveraged-capital fee.
type ProfitModel struct {
	FeeRate              decimal.Decimal
	LeverageFeeRate      decimal.Decimal
	SettlementUnitCost   decimal.Decimal
	SettlementAssetPrice decimal.Decimal
}

// NewProfitModel creates a model with the default cost parameters.
func NewProfitModel() *ProfitModel {
	return &ProfitModel{
		FeeRate:              DefaultFeeRate,
		LeverageFeeRate:      DefaultLeverageFeeRate,
		SettlementUnitCost:   DefaultSettlementUnitCost,
		SettlementAssetPrice: DefaultSettlementAssetPrice,
	}
}

// SettlementCost returns the estimated settlement cost for one round trip.
// Leveraged trades settle twice (borrow and repay), doubling the estimate.
func (m *ProfitModel) SettlementCost(useLeverage bool) decimal.Decimal {
	cost := m.SettlementUnitCost.Mul(m.SettlementAssetPrice)
	if useLeverage {
		cost = cost.Mul(two)
	}
	return cost
}

// Apply prices a raw gap at the given trade amount. A non-positive buy
// value cannot yield a profit percentage and fails with CodeDegenerateTrade.
func (m *ProfitModel) Apply(raw domain.RawOpportunity, tradeAmount decimal.Decimal, useLeverage bool) (domain.Opportunity, error) {
	buyValue := tradeAmount.Mul(raw.BuyPrice)
	if !buyValue.IsPositive() {
		return domain.Opportunity{}, apperror.New(apperror.CodeDegenerateTrade,
			apperror.WithContext(raw.Instrument.Symbol()+" buy value "+buyValue.String()))
	}
	sellValue := tradeAmount.Mul(raw.SellPrice)

	fees := buyValue.Mul(m.FeeRate).Add(sellValue.Mul(m.FeeRate))
	settlement := m.SettlementCost(useLeverage)

	leveragedFee := decimal.Zero
	if useLeverage {
		leveragedFee = buyValue.Mul(m.LeverageFeeRate)
	}

	netProfit := sellValue.Sub(buyValue).Sub(fees).Sub(settlement).Sub(leveragedFee)

	return domain.Opportunity{
		ID:             uuid.New(),
		Instrument:     raw.Instrument,
		BuyVenue:       raw.BuyVenue,
		SellVenue:      raw.SellVenue,
		BuyPrice:       raw.BuyPrice,
		SellPrice:      raw.SellPrice,
		GrossSpread:    raw.GrossSpread,
		GrossSpreadPct: raw.GrossSpreadPct,

		TradeAmount:            tradeAmount,
		FeeEstimate:            fees,
		SettlementCostEstimate: settlement,
		LeveragedCostEstimate:  leveragedFee,
		UseLeverage:            useLeverage,
		NetProfit:              netProfit,
		NetProfitPct:           netProfit.Mul(hundred).Div(buyValue),

		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}, nil
}
