package ethcontract

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContractABIParses(t *testing.T) {
	cabi, err := abi.JSON(strings.NewReader(contractABI))
	require.NoError(t, err)

	require.Contains(t, cabi.Methods, "executeArbitrage")
	require.Contains(t, cabi.Methods, "executeFlashloanArbitrage")
	assert.Len(t, cabi.Methods["executeArbitrage"].Inputs, 4)
	assert.Len(t, cabi.Methods["executeFlashloanArbitrage"].Inputs, 5)
}

func TestTradeAmountUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals int
		want     *big.Int
	}{
		{"one ether", "1", 18, new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)},
		{"fractional", "0.5", 6, big.NewInt(500_000)},
		{"sub-unit truncates", "0.0000001", 6, big.NewInt(0)},
		{"zero", "0", 18, big.NewInt(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tradeAmountUnits(decimal.RequireFromString(tt.amount), tt.decimals)
			assert.Zero(t, got.Cmp(tt.want), "got %s want %s", got, tt.want)
		})
	}
}
