// Package ammpool implements the VenueClient port for Uniswap V3 style
// constant-product pools read over an Ethereum JSON-RPC endpoint. The spot
// price from slot0 serves as both bid and ask since a pool has no order book.
package ammpool

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"crossarb/business/market/app"
	"crossarb/business/market/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/breaker"
	"crossarb/internal/token"
)

const (
	tracerName = "ammpool"

	// Uniswap V3 factory on Ethereum mainnet.
	defaultFactoryAddr = "0x1F98431c8aD98523631AE4a59f267346ea31F984"
)

// feeTiers are probed in ascending order; the first tier with a deployed
// pool wins.
var feeTiers = []int64{500, 3000, 10000}

const factoryABI = `[
  {"inputs":[
     {"internalType":"address","name":"tokenA","type":"address"},
     {"internalType":"address","name":"tokenB","type":"address"},
     {"internalType":"uint24","name":"fee","type":"uint24"}],
   "name":"getPool","outputs":[{"internalType":"address","name":"pool","type":"address"}],
   "stateMutability":"view","type":"function"}
]`

const poolABI = `[
  {"inputs":[],"name":"slot0","outputs":[
     {"internalType":"uint160","name":"sqrtPriceX96","type":"uint160"},
     {"internalType":"int24","name":"tick","type":"int24"},
     {"internalType":"uint16","name":"observationIndex","type":"uint16"},
     {"internalType":"uint16","name":"observationCardinality","type":"uint16"},
     {"internalType":"uint16","name":"observationCardinalityNext","type":"uint16"},
     {"internalType":"uint8","name":"feeProtocol","type":"uint8"},
     {"internalType":"bool","name":"unlocked","type":"bool"}],
   "stateMutability":"view","type":"function"}
]`

// contractCaller is the slice of ethclient.Client the pool client needs.
type contractCaller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Ensure Client implements the venue port.
var _ app.VenueClient = (*Client)(nil)

// Client quotes instruments from on-chain liquidity pools. Pool addresses
// are resolved through the factory once per instrument and then cached.
type Client struct {
	name    string
	caller  contractCaller
	logger  *slog.Logger
	cb      *breaker.Breaker[*big.Int]
	tracer  trace.Tracer
	factory common.Address
	fabi    abi.ABI
	pabi    abi.ABI

	poolMu sync.Mutex
	pools  map[domain.Instrument]common.Address
}

// New creates a pool client from its venue configuration. The "rpc_url"
// param is required; "factory" overrides the default factory address.
func New(cfg domain.VenueConfig, logger *slog.Logger) (*Client, error) {
	rpcURL := cfg.Param("rpc_url", "")
	if rpcURL == "" {
		return nil, apperror.New(apperror.CodeVenueInit,
			apperror.WithContext(cfg.Name+" requires an rpc_url param"))
	}

	ec, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeVenueInit, cfg.Name)
	}
	return newWithCaller(cfg, ec, logger)
}

func newWithCaller(cfg domain.VenueConfig, caller contractCaller, logger *slog.Logger) (*Client, error) {
	fabi, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeVenueInit, "factory abi")
	}
	pabi, err := abi.JSON(strings.NewReader(poolABI))
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeVenueInit, "pool abi")
	}

	return &Client{
		name:    cfg.Name,
		caller:  caller,
		logger:  logger,
		cb:      breaker.New[*big.Int](cfg.Name),
		tracer:  otel.Tracer(tracerName),
		factory: common.HexToAddress(cfg.Param("factory", defaultFactoryAddr)),
		fabi:    fabi,
		pabi:    pabi,
		pools:   make(map[domain.Instrument]common.Address),
	}, nil
}

// Name implements app.VenueClient.
func (c *Client) Name() string { return c.name }

// Quote implements app.VenueClient. Instruments whose symbols are not in the
// token table fail with CodeUnsupportedToken; pairs with no deployed pool on
// any fee tier fail with CodePoolNotFound.
func (c *Client) Quote(ctx context.Context, inst domain.Instrument) (domain.Quote, error) {
	ctx, span := c.tracer.Start(ctx, "ammpool.quote",
		trace.WithAttributes(
			attribute.String("venue", c.name),
			attribute.String("instrument", inst.Symbol()),
		),
	)
	defer span.End()

	base, ok := token.Lookup(inst.Base)
	if !ok {
		span.SetStatus(codes.Error, "base token unknown")
		return domain.Quote{}, apperror.New(apperror.CodeUnsupportedToken,
			apperror.WithContext(inst.Base))
	}
	quote, ok := token.Lookup(inst.Quote)
	if !ok {
		span.SetStatus(codes.Error, "quote token unknown")
		return domain.Quote{}, apperror.New(apperror.CodeUnsupportedToken,
			apperror.WithContext(inst.Quote))
	}

	pool, err := c.resolvePool(ctx, inst, base, quote)
	if err != nil {
		span.SetStatus(codes.Error, "pool resolution failed")
		return domain.Quote{}, err
	}

	sqrtPriceX96, err := c.cb.Execute(func() (*big.Int, error) {
		return c.readSqrtPrice(ctx, pool)
	})
	if err != nil {
		span.SetStatus(codes.Error, "slot0 read failed")
		return domain.Quote{}, err
	}

	// token0 is always the numerically lower address.
	baseIsToken1 := bytes.Compare(base.Address.Bytes(), quote.Address.Bytes()) > 0
	dec0, dec1 := base.Decimals, quote.Decimals
	if baseIsToken1 {
		dec0, dec1 = quote.Decimals, base.Decimals
	}

	price, err := PriceFromSqrtX96(sqrtPriceX96, dec0, dec1, baseIsToken1)
	if err != nil {
		span.SetStatus(codes.Error, "price conversion failed")
		return domain.Quote{}, err
	}

	span.SetStatus(codes.Ok, "quote received")
	return domain.Quote{
		Venue:      c.name,
		Instrument: inst,
		Bid:        price,
		Ask:        price,
		Last:       price,
		Volume:     decimal.Zero,
		ObservedAt: time.Now(),
	}, nil
}

// resolvePool finds the pool for a pair, probing the fee tiers in order and
// caching the first hit.
func (c *Client) resolvePool(ctx context.Context, inst domain.Instrument, base, quote token.Token) (common.Address, error) {
	c.poolMu.Lock()
	defer c.poolMu.Unlock()

	if pool, ok := c.pools[inst]; ok {
		return pool, nil
	}

	var lastErr error
	for _, fee := range feeTiers {
		pool, err := c.getPool(ctx, base.Address, quote.Address, fee)
		if err != nil {
			lastErr = err
			continue
		}
		if pool == (common.Address{}) {
			continue
		}
		c.pools[inst] = pool
		c.logger.Info("pool resolved",
			"venue", c.name,
			"instrument", inst.Symbol(),
			"fee_tier", fee,
			"pool", pool.Hex())
		return pool, nil
	}

	if lastErr != nil {
		return common.Address{}, lastErr
	}
	return common.Address{}, apperror.New(apperror.CodePoolNotFound,
		apperror.WithContext(inst.Symbol()+" on "+c.name))
}

func (c *Client) getPool(ctx context.Context, tokenA, tokenB common.Address, fee int64) (common.Address, error) {
	input, err := c.fabi.Pack("getPool", tokenA, tokenB, big.NewInt(fee))
	if err != nil {
		return common.Address{}, apperror.Wrap(err, apperror.CodeContractCall, "pack getPool")
	}

	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &c.factory, Data: input}, nil)
	if err != nil {
		return common.Address{}, apperror.Wrap(err, apperror.CodeContractCall, "call getPool")
	}

	outs, err := c.fabi.Methods["getPool"].Outputs.Unpack(out)
	if err != nil || len(outs) == 0 {
		return common.Address{}, apperror.New(apperror.CodeContractCall,
			apperror.WithCause(err), apperror.WithContext("decode getPool"))
	}
	return outs[0].(common.Address), nil
}

func (c *Client) readSqrtPrice(ctx context.Context, pool common.Address) (*big.Int, error) {
	input, err := c.pabi.Pack("slot0")
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCall, "pack slot0")
	}

	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &pool, Data: input}, nil)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeContractCall, "call slot0")
	}

	outs, err := c.pabi.Methods["slot0"].Outputs.Unpack(out)
	if err != nil || len(outs) == 0 {
		return nil, apperror.New(apperror.CodeContractCall,
			apperror.WithCause(err), apperror.WithContext("decode slot0"))
	}

	sqrtPriceX96, ok := outs[0].(*big.Int)
	if !ok {
		return nil, apperror.New(apperror.CodeContractCall,
			apperror.WithContext("unexpected sqrtPriceX96 type"))
	}
	return sqrtPriceX96, nil
}
