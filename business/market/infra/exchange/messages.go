package exchange

import (
	"time"

	"github.com/shopspring/decimal"

	"crossarb/business/market/domain"
	"crossarb/internal/apperror"
)

// marketsResponse is the exchange's market-listing payload.
type marketsResponse struct {
	Symbols []struct {
		Symbol string `json:"symbol"`
		Status string `json:"status"`
	} `json:"symbols"`
}

// tickerResponse is the exchange's 24h ticker payload. Prices arrive as
// strings and are parsed into decimals.
type tickerResponse struct {
	Symbol    string `json:"symbol"`
	BidPrice  string `json:"bidPrice"`
	AskPrice  string `json:"askPrice"`
	LastPrice string `json:"lastPrice"`
	Volume    string `json:"volume"`
	CloseTime int64  `json:"closeTime"` // milliseconds since epoch
}

func (t tickerResponse) toQuote(venue string, inst domain.Instrument) (domain.Quote, error) {
	bid, err := parsePrice(t.BidPrice)
	if err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithCause(err), apperror.WithContext("bid price"))
	}
	ask, err := parsePrice(t.AskPrice)
	if err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithCause(err), apperror.WithContext("ask price"))
	}
	last, err := parsePrice(t.LastPrice)
	if err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithCause(err), apperror.WithContext("last price"))
	}
	volume, err := parsePrice(t.Volume)
	if err != nil {
		return domain.Quote{}, apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithCause(err), apperror.WithContext("volume"))
	}

	observed := time.Now()
	if t.CloseTime > 0 {
		observed = time.UnixMilli(t.CloseTime)
	}

	return domain.Quote{
		Venue:      venue,
		Instrument: inst,
		Bid:        bid,
		Ask:        ask,
		Last:       last,
		Volume:     volume,
		ObservedAt: observed,
	}, nil
}

// parsePrice treats an empty field as absent rather than malformed.
func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
