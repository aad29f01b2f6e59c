// Package token holds the static symbol-to-address table used by the AMM
// pool client. The table is deliberately small and fixed: pairs whose
// symbols are absent are simply not quotable on-chain.
package token

import "github.com/ethereum/go-ethereum/common"

// Token describes one ERC20 token known to the scanner.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals int
}

// Well-known token addresses on Ethereum mainnet.
var (
	AddrWETH = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	AddrWBTC = common.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	AddrUSDT = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrUSDC = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrDAI  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

// table maps trading symbols to tokens. ETH and BTC map to their wrapped
// forms since only those trade in pools.
var table = map[string]Token{
	"ETH":  {Symbol: "WETH", Address: AddrWETH, Decimals: 18},
	"WETH": {Symbol: "WETH", Address: AddrWETH, Decimals: 18},
	"BTC":  {Symbol: "WBTC", Address: AddrWBTC, Decimals: 8},
	"WBTC": {Symbol: "WBTC", Address: AddrWBTC, Decimals: 8},
	"USDT": {Symbol: "USDT", Address: AddrUSDT, Decimals: 6},
	"USDC": {Symbol: "USDC", Address: AddrUSDC, Decimals: 6},
	"DAI":  {Symbol: "DAI", Address: AddrDAI, Decimals: 18},
}

// Lookup resolves a trading symbol to a token.
func Lookup(symbol string) (Token, bool) {
	t, ok := table[symbol]
	return t, ok
}

// Supported reports whether both symbols of a pair resolve to tokens.
func Supported(base, quote string) bool {
	_, okBase := table[base]
	_, okQuote := table[quote]
	return okBase && okQuote
}
