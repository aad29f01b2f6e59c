package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	arb "crossarb/business/arbitrage/domain"
	market "crossarb/business/market/domain"
	"crossarb/internal/apperror"
	"crossarb/internal/store"
)

// Ensure the full contract is met.
var _ store.Store = (*Store)(nil)

// Store persists scanner state in PostgreSQL.
type Store struct {
	pool      *pgxpool.Pool
	retention int
}

// New creates a store on an open pool. A non-positive retention falls back
// to store.DefaultRetention.
func New(pool *pgxpool.Pool, retention int) *Store {
	if retention <= 0 {
		retention = store.DefaultRetention
	}
	return &Store{pool: pool, retention: retention}
}

// Settings implements store.Store. Defaults apply until the singleton row
// has been written.
func (s *Store) Settings(ctx context.Context) (market.ScanSettings, error) {
	const query = `
		SELECT scan_interval_ms, min_profit_pct, settlement_ceiling,
		       use_leverage, trade_amount
		FROM scan_settings WHERE id = 1`

	var (
		intervalMs int64
		settings   market.ScanSettings
	)
	err := s.pool.QueryRow(ctx, query).Scan(
		&intervalMs,
		&settings.MinProfitThreshold,
		&settings.SettlementCeiling,
		&settings.UseLeverage,
		&settings.TradeAmount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return market.DefaultScanSettings(), nil
	}
	if err != nil {
		return market.ScanSettings{}, apperror.Wrap(err, apperror.CodeStoreQuery, "settings")
	}
	settings.ScanInterval = time.Duration(intervalMs) * time.Millisecond
	return settings, nil
}

// UpdateSettings implements store.Store.
func (s *Store) UpdateSettings(ctx context.Context, settings market.ScanSettings) error {
	const query = `
		INSERT INTO scan_settings (
			id, scan_interval_ms, min_profit_pct, settlement_ceiling,
			use_leverage, trade_amount, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, NOW())
		ON CONFLICT (id) DO UPDATE SET
			scan_interval_ms   = EXCLUDED.scan_interval_ms,
			min_profit_pct     = EXCLUDED.min_profit_pct,
			settlement_ceiling = EXCLUDED.settlement_ceiling,
			use_leverage       = EXCLUDED.use_leverage,
			trade_amount       = EXCLUDED.trade_amount,
			updated_at         = NOW()`

	_, err := s.pool.Exec(ctx, query,
		settings.ScanInterval.Milliseconds(),
		settings.MinProfitThreshold,
		settings.SettlementCeiling,
		settings.UseLeverage,
		settings.TradeAmount,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "update settings")
	}
	return nil
}

// ActiveVenues implements store.Store. Ordered by name so downstream
// iteration is reproducible.
func (s *Store) ActiveVenues(ctx context.Context) ([]market.VenueConfig, error) {
	const query = `
		SELECT name, kind, api_key, api_secret, params, active
		FROM venues WHERE active ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "active venues")
	}
	defer rows.Close()

	var venues []market.VenueConfig
	for rows.Next() {
		var v market.VenueConfig
		if err := rows.Scan(&v.Name, &v.Kind, &v.APIKey, &v.APISecret, &v.Params, &v.Active); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "scan venue")
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "active venues rows")
	}
	return venues, nil
}

// ActiveInstruments implements store.Store.
func (s *Store) ActiveInstruments(ctx context.Context) ([]market.Instrument, error) {
	const query = `
		SELECT base_symbol, quote_symbol
		FROM instruments WHERE active
		ORDER BY base_symbol, quote_symbol`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "active instruments")
	}
	defer rows.Close()

	var insts []market.Instrument
	for rows.Next() {
		var inst market.Instrument
		if err := rows.Scan(&inst.Base, &inst.Quote); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "scan instrument")
		}
		insts = append(insts, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "active instruments rows")
	}
	return insts, nil
}

// UpsertVenue implements store.Store.
func (s *Store) UpsertVenue(ctx context.Context, venue market.VenueConfig) error {
	const query = `
		INSERT INTO venues (name, kind, api_key, api_secret, params, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (name) DO UPDATE SET
			kind       = EXCLUDED.kind,
			api_key    = EXCLUDED.api_key,
			api_secret = EXCLUDED.api_secret,
			params     = EXCLUDED.params,
			active     = EXCLUDED.active,
			updated_at = NOW()`

	params := venue.Params
	if params == nil {
		params = map[string]string{}
	}
	_, err := s.pool.Exec(ctx, query,
		venue.Name, string(venue.Kind), venue.APIKey, venue.APISecret, params, venue.Active)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "upsert venue "+venue.Name)
	}
	return nil
}

// UpsertInstrument implements store.Store.
func (s *Store) UpsertInstrument(ctx context.Context, inst market.Instrument, active bool) error {
	const query = `
		INSERT INTO instruments (base_symbol, quote_symbol, active, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (base_symbol, quote_symbol) DO UPDATE SET
			active     = EXCLUDED.active,
			updated_at = NOW()`

	if _, err := s.pool.Exec(ctx, query, inst.Base, inst.Quote, active); err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "upsert instrument "+inst.Symbol())
	}
	return nil
}

const opportunityCols = `
	id, base_symbol, quote_symbol, buy_venue, sell_venue,
	buy_price, sell_price, gross_spread, gross_spread_pct,
	trade_amount, fee_estimate, settlement_cost_estimate,
	leveraged_cost_estimate, use_leverage, net_profit, net_profit_pct,
	status, created_at`

// SaveOpportunity implements store.Store. The retention cap is applied in
// the same transaction, evicting oldest rows first.
func (s *Store) SaveOpportunity(ctx context.Context, opp arb.Opportunity) error {
	const insert = `
		INSERT INTO opportunities (` + opportunityCols + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18)`
	const prune = `
		DELETE FROM opportunities WHERE id IN (
			SELECT id FROM opportunities
			ORDER BY created_at DESC OFFSET $1
		)`

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "begin save")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insert,
		opp.ID, opp.Instrument.Base, opp.Instrument.Quote, opp.BuyVenue, opp.SellVenue,
		opp.BuyPrice, opp.SellPrice, opp.GrossSpread, opp.GrossSpreadPct,
		opp.TradeAmount, opp.FeeEstimate, opp.SettlementCostEstimate,
		opp.LeveragedCostEstimate, opp.UseLeverage, opp.NetProfit, opp.NetProfitPct,
		string(opp.Status), opp.CreatedAt,
	)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "insert opportunity")
	}
	if _, err := tx.Exec(ctx, prune, s.retention); err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "prune opportunities")
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "commit save")
	}
	return nil
}

// Opportunity implements store.Store.
func (s *Store) Opportunity(ctx context.Context, id uuid.UUID) (arb.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities WHERE id = $1`

	opp, err := scanOpportunity(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return arb.Opportunity{}, apperror.New(apperror.CodeNotFound,
			apperror.WithContext("opportunity "+id.String()))
	}
	if err != nil {
		return arb.Opportunity{}, apperror.Wrap(err, apperror.CodeStoreQuery, "opportunity")
	}
	return opp, nil
}

// RecentOpportunities implements store.Store. Newest first.
func (s *Store) RecentOpportunities(ctx context.Context, limit int) ([]arb.Opportunity, error) {
	query := `SELECT ` + opportunityCols + ` FROM opportunities ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "recent opportunities")
	}
	defer rows.Close()

	var opps []arb.Opportunity
	for rows.Next() {
		opp, err := scanOpportunity(rows)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "scan opportunity")
		}
		opps = append(opps, opp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeStoreQuery, "recent opportunities rows")
	}
	return opps, nil
}

// UpdateOpportunityStatus implements store.Store. The current status is
// locked and the transition validated before writing.
func (s *Store) UpdateOpportunityStatus(ctx context.Context, id uuid.UUID, next arb.Status) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "begin status update")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current string
	err = tx.QueryRow(ctx,
		"SELECT status FROM opportunities WHERE id = $1 FOR UPDATE", id,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.New(apperror.CodeNotFound,
			apperror.WithContext("opportunity "+id.String()))
	}
	if err != nil {
		return apperror.Wrap(err, apperror.CodeStoreQuery, "lock status")
	}

	if !arb.Status(current).CanTransition(next) {
		return apperror.New(apperror.CodeStatusTransition,
			apperror.WithContext(current+" -> "+string(next)))
	}

	if _, err := tx.Exec(ctx,
		"UPDATE opportunities SET status = $1 WHERE id = $2", string(next), id,
	); err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "update status")
	}
	if err := tx.Commit(ctx); err != nil {
		return apperror.Wrap(err, apperror.CodeStoreWrite, "commit status update")
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() {
	s.pool.Close()
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(row rowScanner) (arb.Opportunity, error) {
	var (
		opp    arb.Opportunity
		status string
	)
	err := row.Scan(
		&opp.ID, &opp.Instrument.Base, &opp.Instrument.Quote, &opp.BuyVenue, &opp.SellVenue,
		&opp.BuyPrice, &opp.SellPrice, &opp.GrossSpread, &opp.GrossSpreadPct,
		&opp.TradeAmount, &opp.FeeEstimate, &opp.SettlementCostEstimate,
		&opp.LeveragedCostEstimate, &opp.UseLeverage, &opp.NetProfit, &opp.NetProfitPct,
		&status, &opp.CreatedAt,
	)
	if err != nil {
		return arb.Opportunity{}, err
	}
	opp.Status = arb.Status(status)
	return opp, nil
}
