package observations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aristath/sentinel-tuner/internal/database"
	"github.com/aristath/sentinel-tuner/internal/domain"
)

// Repository stores observations in the observations database (observations.db)
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new observations repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Count returns the number of stored observations
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM observations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return n, nil
}

// ReplaceAll atomically replaces the stored observations, keeping their order
func (r *Repository) ReplaceAll(ctx context.Context, observations []domain.Observation) error {
	return database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM observations"); err != nil {
			return fmt.Errorf("failed to clear observations: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO observations (
				seq, date, ticker, price,
				sentiment_score, reversal_probability, recommended_action, risk_level,
				rsi, macd_hist, bb_position, volatility_7d
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, obs := range observations {
			_, err := stmt.ExecContext(ctx,
				i, obs.Date, obs.Ticker, obs.Price,
				nullFloat(obs.Analysis.SentimentScore),
				nullFloat(obs.Analysis.ReversalProbability),
				nullString(obs.Analysis.RecommendedAction),
				nullString(obs.Analysis.RiskLevel),
				nullFloat(obs.Indicators.RSI),
				nullFloat(obs.Indicators.MACDHist),
				nullFloat(obs.Indicators.BBPosition),
				nullFloat(obs.Indicators.Volatility7d),
			)
			if err != nil {
				return fmt.Errorf("failed to insert observation %d (%s @ %s): %w", i, obs.Ticker, obs.Date, err)
			}
		}
		return nil
	})
}

// LoadAll returns every stored observation in source order
func (r *Repository) LoadAll(ctx context.Context) ([]domain.Observation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, ticker, price,
		       sentiment_score, reversal_probability, recommended_action, risk_level,
		       rsi, macd_hist, bb_position, volatility_7d
		FROM observations
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query observations: %w", err)
	}
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var (
			obs                          domain.Observation
			sentiment, reversal          sql.NullFloat64
			action, risk                 sql.NullString
			rsi, macd, bbPos, volatility sql.NullFloat64
		)
		if err := rows.Scan(
			&obs.Date, &obs.Ticker, &obs.Price,
			&sentiment, &reversal, &action, &risk,
			&rsi, &macd, &bbPos, &volatility,
		); err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}

		obs.Analysis = domain.Analysis{
			SentimentScore:      floatPtr(sentiment),
			ReversalProbability: floatPtr(reversal),
			RecommendedAction:   action.String,
			RiskLevel:           risk.String,
		}
		obs.Indicators = domain.Indicators{
			RSI:          floatPtr(rsi),
			MACDHist:     floatPtr(macd),
			BBPosition:   floatPtr(bbPos),
			Volatility7d: floatPtr(volatility),
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate observations: %w", err)
	}

	return out, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
