// Package ethcontract executes opportunities through an on-chain arbitrage
// contract exposing executeArbitrage and executeFlashloanArbitrage.
package ethcontract

import (
	"context"
	"crypto/ecdsa"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	arb "crossarb/business/arbitrage/domain"
	"crossarb/business/execution/app"
	"crossarb/business/execution/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/token"
)

const contractABI = `[
  {"inputs":[
     {"name":"token","type":"address"},
     {"name":"buyExchange","type":"address"},
     {"name":"sellExchange","type":"address"},
     {"name":"amount","type":"uint256"}],
   "name":"executeArbitrage",
   "outputs":[{"name":"profit","type":"uint256"}],
   "stateMutability":"nonpayable","type":"function"},
  {"inputs":[
     {"name":"token","type":"address"},
     {"name":"buyExchange","type":"address"},
     {"name":"sellExchange","type":"address"},
     {"name":"amount","type":"uint256"},
     {"name":"flashLoanProvider","type":"address"}],
   "name":"executeFlashloanArbitrage",
   "outputs":[{"name":"profit","type":"uint256"}],
   "stateMutability":"nonpayable","type":"function"}
]`

// DefaultGasLimit covers both contract paths with headroom.
const DefaultGasLimit = 600_000

// Config wires the executor to a deployed contract and a funded wallet.
type Config struct {
	RPCURL            string
	PrivateKey        string // hex, no 0x prefix
	ContractAddress   string
	FlashLoanProvider string
	GasLimit          uint64
	// VenueAddresses maps venue names to their on-chain exchange adapters.
	VenueAddresses map[string]string
}

// Ensure Executor implements the trader port.
var _ app.Trader = (*Executor)(nil)

// Executor signs and sends arbitrage transactions and waits for the
// receipt. The reported profit is the pre-trade estimate; parsing realized
// profit from logs needs the deployed contract's event layout.
type Executor struct {
	ec        *ethclient.Client
	cabi      abi.ABI
	pk        *ecdsa.PrivateKey
	sender    common.Address
	contract  common.Address
	flashloan common.Address
	gasLimit  uint64
	venues    map[string]common.Address
	logger    *slog.Logger
}

// New creates an executor from config.
func New(cfg Config, logger *slog.Logger) (*Executor, error) {
	ec, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "dial rpc")
	}

	cabi, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "parse contract abi")
	}

	pk, err := crypto.HexToECDSA(cfg.PrivateKey)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "parse private key")
	}

	gasLimit := cfg.GasLimit
	if gasLimit == 0 {
		gasLimit = DefaultGasLimit
	}

	venues := make(map[string]common.Address, len(cfg.VenueAddresses))
	for name, addr := range cfg.VenueAddresses {
		venues[name] = common.HexToAddress(addr)
	}

	return &Executor{
		ec:        ec,
		cabi:      cabi,
		pk:        pk,
		sender:    crypto.PubkeyToAddress(pk.PublicKey),
		contract:  common.HexToAddress(cfg.ContractAddress),
		flashloan: common.HexToAddress(cfg.FlashLoanProvider),
		gasLimit:  gasLimit,
		venues:    venues,
		logger:    logger,
	}, nil
}

// Execute implements app.Trader.
func (e *Executor) Execute(ctx context.Context, opp arb.Opportunity) (domain.Result, error) {
	input, err := e.packCall(opp)
	if err != nil {
		return domain.Result{}, err
	}

	signedTx, err := e.signTx(ctx, input)
	if err != nil {
		return domain.Result{}, err
	}

	if err := e.ec.SendTransaction(ctx, signedTx); err != nil {
		return domain.Result{}, apperror.Wrap(err, apperror.CodeExecutionFailed, "send transaction")
	}

	e.logger.Info("arbitrage transaction sent",
		"instrument", opp.Instrument.Symbol(),
		"tx", signedTx.Hash().Hex(),
		"leveraged", opp.UseLeverage)

	receipt, err := bind.WaitMined(ctx, e.ec, signedTx)
	if err != nil {
		return domain.Result{}, apperror.Wrap(err, apperror.CodeExecutionFailed, "wait receipt")
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return domain.Result{
			Outcome:       domain.OutcomeFailed,
			SettlementRef: signedTx.Hash().Hex(),
			FailureReason: "transaction reverted",
		}, nil
	}

	return domain.Result{
		Outcome:       domain.OutcomeSuccess,
		SettlementRef: signedTx.Hash().Hex(),
		ActualProfit:  opp.NetProfit,
	}, nil
}

func (e *Executor) packCall(opp arb.Opportunity) ([]byte, error) {
	base, ok := token.Lookup(opp.Instrument.Base)
	if !ok {
		return nil, apperror.New(apperror.CodeUnsupportedToken,
			apperror.WithContext(opp.Instrument.Base))
	}

	buyAddr, ok := e.venues[opp.BuyVenue]
	if !ok {
		return nil, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithContext("no on-chain address for venue "+opp.BuyVenue))
	}
	sellAddr, ok := e.venues[opp.SellVenue]
	if !ok {
		return nil, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithContext("no on-chain address for venue "+opp.SellVenue))
	}

	amount := tradeAmountUnits(opp.TradeAmount, base.Decimals)
	if amount.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeDegenerateTrade,
			apperror.WithContext("trade amount "+opp.TradeAmount.String()))
	}

	var (
		input []byte
		err   error
	)
	if opp.UseLeverage {
		input, err = e.cabi.Pack("executeFlashloanArbitrage",
			base.Address, buyAddr, sellAddr, amount, e.flashloan)
	} else {
		input, err = e.cabi.Pack("executeArbitrage",
			base.Address, buyAddr, sellAddr, amount)
	}
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "pack call")
	}
	return input, nil
}

func (e *Executor) signTx(ctx context.Context, input []byte) (*types.Transaction, error) {
	chainID, err := e.ec.ChainID(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "chain id")
	}
	nonce, err := e.ec.PendingNonceAt(ctx, e.sender)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "nonce")
	}
	gasTipCap, err := e.ec.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "gas tip cap")
	}
	header, err := e.ec.HeaderByNumber(ctx, nil)
	if err != nil || header.BaseFee == nil {
		return nil, apperror.New(apperror.CodeExecutionFailed,
			apperror.WithCause(err), apperror.WithContext("base fee"))
	}
	gasFeeCap := new(big.Int).Add(
		new(big.Int).Mul(header.BaseFee, big.NewInt(2)),
		gasTipCap,
	)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Gas:       e.gasLimit,
		To:        &e.contract,
		Value:     big.NewInt(0),
		Data:      input,
	})

	signedTx, err := types.SignTx(tx, types.NewLondonSigner(chainID), e.pk)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeExecutionFailed, "sign transaction")
	}
	return signedTx, nil
}

// tradeAmountUnits converts a human trade amount into the token's smallest
// units, truncating any fraction below one unit.
func tradeAmountUnits(amount decimal.Decimal, decimals int) *big.Int {
	return amount.Shift(int32(decimals)).BigInt()
}
