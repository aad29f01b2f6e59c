package ammpool

import (
	"math/big"

	"github.com/shopspring/decimal"

	"crossarb/internal/apperror"
)

// q192 is 2^192, the denominator of (sqrtPriceX96)^2.
var q192 = new(big.Float).SetPrec(256).SetInt(new(big.Int).Lsh(big.NewInt(1), 192))

// PriceFromSqrtX96 converts a pool's sqrtPriceX96 into a human price of the
// base token expressed in the quote token. dec0 and dec1 are the decimals of
// token0 and token1 in the pool's canonical ordering. When the base token is
// token1 the raw token1-per-token0 price is inverted.
func PriceFromSqrtX96(sqrtPriceX96 *big.Int, dec0, dec1 int, baseIsToken1 bool) (decimal.Decimal, error) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() <= 0 {
		return decimal.Decimal{}, apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithContext("sqrtPriceX96 must be positive"))
	}

	// raw token1/token0 ratio: (sqrtPriceX96 / 2^96)^2
	ratio := new(big.Float).SetPrec(256).SetInt(sqrtPriceX96)
	ratio.Mul(ratio, ratio)
	ratio.Quo(ratio, q192)

	// scale raw amounts into human units: 10^(dec0 - dec1)
	if diff := dec0 - dec1; diff != 0 {
		scale := new(big.Float).SetPrec(256).SetInt(pow10(abs(diff)))
		if diff > 0 {
			ratio.Mul(ratio, scale)
		} else {
			ratio.Quo(ratio, scale)
		}
	}

	if baseIsToken1 {
		if ratio.Sign() == 0 {
			return decimal.Decimal{}, apperror.New(apperror.CodeQuoteInvalid,
				apperror.WithContext("zero pool price"))
		}
		ratio.Quo(new(big.Float).SetPrec(256).SetInt64(1), ratio)
	}

	price, err := decimal.NewFromString(ratio.Text('f', 18))
	if err != nil {
		return decimal.Decimal{}, apperror.New(apperror.CodeQuoteInvalid,
			apperror.WithCause(err), apperror.WithContext("pool price"))
	}
	return price, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
