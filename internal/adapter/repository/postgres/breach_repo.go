package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// breachRepository implements domain.BreachRepository. Margin-floor
// breaches are an append-only audit log: no updates, no deletes.
type breachRepository struct {
	db *DB
}

// NewBreachRepository creates a new breach audit repository
func NewBreachRepository(db *DB) domain.BreachRepository {
	return &breachRepository{db: db}
}

// Record appends one breach to the audit log.
func (r *breachRepository) Record(ctx context.Context, breach domain.MarginFloorBreached) error {
	query := `
		INSERT INTO margin_floor_breaches (
			calculation_id, product_id, price, cost, currency,
			calculated_margin, floor_margin, pricing_tier_type,
			order_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		breach.CalculationID,
		breach.ProductID,
		breach.Price.String(),
		breach.Cost.String(),
		breach.Currency,
		breach.CalculatedMargin.String(),
		breach.FloorMargin.String(),
		string(breach.PricingTierType),
		nullIfEmpty(breach.OrderID),
		breach.Occurred,
	)
	if err != nil {
		return fmt.Errorf("failed to record margin floor breach: %w", err)
	}
	return nil
}

// ListRecent retrieves the newest breaches first.
func (r *breachRepository) ListRecent(ctx context.Context, limit int) ([]domain.MarginFloorBreached, error) {
	query := `
		SELECT calculation_id, product_id, price, cost, currency,
		       calculated_margin, floor_margin, pricing_tier_type,
		       COALESCE(order_id, ''), occurred_at
		FROM margin_floor_breaches
		ORDER BY occurred_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query margin floor breaches: %w", err)
	}
	defer rows.Close()

	var breaches []domain.MarginFloorBreached
	for rows.Next() {
		var (
			breach      domain.MarginFloorBreached
			priceStr    string
			costStr     string
			calcStr     string
			floorStr    string
			tierTypeStr string
		)

		err := rows.Scan(
			&breach.CalculationID,
			&breach.ProductID,
			&priceStr,
			&costStr,
			&breach.Currency,
			&calcStr,
			&floorStr,
			&tierTypeStr,
			&breach.OrderID,
			&breach.Occurred,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan margin floor breach: %w", err)
		}

		if breach.Price, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("failed to parse breach price: %w", err)
		}
		if breach.Cost, err = decimal.NewFromString(costStr); err != nil {
			return nil, fmt.Errorf("failed to parse breach cost: %w", err)
		}
		if breach.CalculatedMargin, err = decimal.NewFromString(calcStr); err != nil {
			return nil, fmt.Errorf("failed to parse calculated margin: %w", err)
		}
		if breach.FloorMargin, err = decimal.NewFromString(floorStr); err != nil {
			return nil, fmt.Errorf("failed to parse floor margin: %w", err)
		}
		breach.PricingTierType = domain.PricingTierType(tierTypeStr)

		breaches = append(breaches, breach)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate margin floor breaches: %w", err)
	}
	return breaches, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
