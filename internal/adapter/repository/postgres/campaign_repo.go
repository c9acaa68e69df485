package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/priceflow/priceflow-backend/internal/domain"
)

// campaignRepository implements domain.CampaignRepository
type campaignRepository struct {
	db *DB
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *DB) domain.CampaignRepository {
	return &campaignRepository{db: db}
}

const campaignColumns = `
	id, name, description, campaign_type, status, start_date, end_date,
	applicable_tiers, modifier_kind, modifier_name, modifier_description,
	modifier_value, modifier_currency, modifier_priority, product_ids,
	max_usage_count, current_usage_count, code, created_at, updated_at
`

// Save inserts or updates a campaign and rewrites its rules in one
// transaction.
func (r *campaignRepository) Save(ctx context.Context, campaign *domain.PromotionalCampaign) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaigns (` + campaignColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			campaign_type = EXCLUDED.campaign_type,
			status = EXCLUDED.status,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			applicable_tiers = EXCLUDED.applicable_tiers,
			modifier_kind = EXCLUDED.modifier_kind,
			modifier_name = EXCLUDED.modifier_name,
			modifier_description = EXCLUDED.modifier_description,
			modifier_value = EXCLUDED.modifier_value,
			modifier_currency = EXCLUDED.modifier_currency,
			modifier_priority = EXCLUDED.modifier_priority,
			product_ids = EXCLUDED.product_ids,
			max_usage_count = EXCLUDED.max_usage_count,
			current_usage_count = EXCLUDED.current_usage_count,
			code = EXCLUDED.code,
			updated_at = EXCLUDED.updated_at
	`

	var maxUsage interface{}
	if campaign.MaxUsageCount != nil {
		maxUsage = *campaign.MaxUsageCount
	}

	_, err = tx.ExecContext(ctx, query,
		campaign.ID,
		campaign.Name,
		campaign.Description,
		string(campaign.Type),
		string(campaign.Status),
		campaign.StartDate,
		campaign.EndDate,
		pq.Array(tierTypeStrings(campaign.ApplicableTiers)),
		string(campaign.Modifier.Kind()),
		campaign.Modifier.Name(),
		campaign.Modifier.Description(),
		campaign.Modifier.Value().String(),
		campaign.Modifier.Currency(),
		campaign.Modifier.Priority(),
		pq.Array(campaign.ProductIDs),
		maxUsage,
		campaign.CurrentUsageCount,
		campaign.Code,
		campaign.CreatedAt,
		campaign.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save campaign: %w", err)
	}

	// Rules are rewritten wholesale on every save
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_rules WHERE campaign_id = $1`, campaign.ID); err != nil {
		return fmt.Errorf("failed to clear campaign rules: %w", err)
	}

	ruleQuery := `
		INSERT INTO campaign_rules (
			id, campaign_id, name, description, conditions,
			modifier_kind, modifier_name, modifier_description,
			modifier_value, modifier_currency, modifier_priority,
			applicable_tiers, start_date, end_date, active, priority
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	for _, rule := range campaign.Rules {
		conditions, err := json.Marshal(rule.Conditions)
		if err != nil {
			return fmt.Errorf("failed to marshal rule conditions: %w", err)
		}

		_, err = tx.ExecContext(ctx, ruleQuery,
			rule.ID,
			campaign.ID,
			rule.Name,
			rule.Description,
			conditions,
			string(rule.Modifier.Kind()),
			rule.Modifier.Name(),
			rule.Modifier.Description(),
			rule.Modifier.Value().String(),
			rule.Modifier.Currency(),
			rule.Modifier.Priority(),
			pq.Array(tierTypeStrings(rule.ApplicableTiers)),
			rule.StartDate,
			rule.EndDate,
			rule.Active,
			rule.Priority,
		)
		if err != nil {
			return fmt.Errorf("failed to save campaign rule: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit campaign save: %w", err)
	}
	return nil
}

// FindByID retrieves a campaign with its rules.
func (r *campaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.PromotionalCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return r.queryOne(ctx, query, id)
}

// FindByCode retrieves a campaign by its promotion code.
func (r *campaignRepository) FindByCode(ctx context.Context, code string) (*domain.PromotionalCampaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE code = $1`
	return r.queryOne(ctx, query, code)
}

// FindCurrentlyActive retrieves ACTIVE campaigns inside their date window.
func (r *campaignRepository) FindCurrentlyActive(ctx context.Context) ([]*domain.PromotionalCampaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY created_at
	`
	return r.queryMany(ctx, query, string(domain.CampaignActive), time.Now().UTC())
}

// FindActiveByTier retrieves currently active campaigns covering the tier.
func (r *campaignRepository) FindActiveByTier(ctx context.Context, tierType domain.PricingTierType) ([]*domain.PromotionalCampaign, error) {
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE status = $1 AND start_date <= $2 AND end_date >= $2 AND $3 = ANY(applicable_tiers)
		ORDER BY created_at
	`
	return r.queryMany(ctx, query, string(domain.CampaignActive), time.Now().UTC(), string(tierType))
}

// IncrementUsage counts one application, refusing to exceed the usage cap.
func (r *campaignRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE campaigns
		SET current_usage_count = current_usage_count + 1, updated_at = $2
		WHERE id = $1
		  AND (max_usage_count IS NULL OR current_usage_count < max_usage_count)
	`

	result, err := r.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to increment campaign usage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check increment result: %w", err)
	}
	if affected == 0 {
		return errors.New("campaign not found or usage limit reached")
	}
	return nil
}

// Delete removes a campaign; its rules go with it via ON DELETE CASCADE.
func (r *campaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrCampaignNotFound
	}
	return nil
}

func (r *campaignRepository) queryOne(ctx context.Context, query string, arg interface{}) (*domain.PromotionalCampaign, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	campaign, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCampaignNotFound
		}
		return nil, err
	}

	if err := r.loadRules(ctx, campaign); err != nil {
		return nil, err
	}
	return campaign, nil
}

func (r *campaignRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*domain.PromotionalCampaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*domain.PromotionalCampaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, campaign)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	for _, campaign := range campaigns {
		if err := r.loadRules(ctx, campaign); err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

func (r *campaignRepository) loadRules(ctx context.Context, campaign *domain.PromotionalCampaign) error {
	query := `
		SELECT id, name, description, conditions,
		       modifier_kind, modifier_name, modifier_description,
		       modifier_value, modifier_currency, modifier_priority,
		       applicable_tiers, start_date, end_date, active, priority
		FROM campaign_rules
		WHERE campaign_id = $1
		ORDER BY priority DESC
	`

	rows, err := r.db.QueryContext(ctx, query, campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to query campaign rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rule          domain.PricingRule
			conditionsRaw []byte
			modKind       string
			modName       string
			modDesc       string
			modValueStr   string
			modCurrency   sql.NullString
			modPriority   int
			tierStrs      pq.StringArray
			startDate     sql.NullTime
			endDate       sql.NullTime
		)

		err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&conditionsRaw,
			&modKind,
			&modName,
			&modDesc,
			&modValueStr,
			&modCurrency,
			&modPriority,
			&tierStrs,
			&startDate,
			&endDate,
			&rule.Active,
			&rule.Priority,
		)
		if err != nil {
			return fmt.Errorf("failed to scan campaign rule: %w", err)
		}

		if err := json.Unmarshal(conditionsRaw, &rule.Conditions); err != nil {
			return fmt.Errorf("failed to unmarshal rule conditions: %w", err)
		}

		rule.Modifier, err = rebuildModifier(modKind, modName, modDesc, modValueStr, modCurrency.String, modPriority)
		if err != nil {
			return err
		}

		rule.ApplicableTiers, err = tiersFromStrings(tierStrs)
		if err != nil {
			return err
		}

		if startDate.Valid {
			t := startDate.Time
			rule.StartDate = &t
		}
		if endDate.Valid {
			t := endDate.Time
			rule.EndDate = &t
		}

		campaign.Rules = append(campaign.Rules, &rule)
	}
	return rows.Err()
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row rowScanner) (*domain.PromotionalCampaign, error) {
	var (
		campaign     domain.PromotionalCampaign
		campaignType string
		status       string
		tierStrs     pq.StringArray
		modKind      string
		modName      string
		modDesc      string
		modValueStr  string
		modCurrency  sql.NullString
		modPriority  int
		productIDs   pq.StringArray
		maxUsage     sql.NullInt64
	)

	err := row.Scan(
		&campaign.ID,
		&campaign.Name,
		&campaign.Description,
		&campaignType,
		&status,
		&campaign.StartDate,
		&campaign.EndDate,
		&tierStrs,
		&modKind,
		&modName,
		&modDesc,
		&modValueStr,
		&modCurrency,
		&modPriority,
		&productIDs,
		&maxUsage,
		&campaign.CurrentUsageCount,
		&campaign.Code,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	campaign.Type = domain.CampaignType(campaignType)
	campaign.Status = domain.CampaignStatus(status)
	campaign.ProductIDs = productIDs

	campaign.Modifier, err = rebuildModifier(modKind, modName, modDesc, modValueStr, modCurrency.String, modPriority)
	if err != nil {
		return nil, err
	}

	campaign.ApplicableTiers, err = tiersFromStrings(tierStrs)
	if err != nil {
		return nil, err
	}

	if maxUsage.Valid {
		count := int(maxUsage.Int64)
		campaign.MaxUsageCount = &count
	}

	return &campaign, nil
}

func rebuildModifier(kind, name, description, valueStr, currency string, priority int) (domain.PriceModifier, error) {
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return domain.PriceModifier{}, fmt.Errorf("failed to parse modifier value: %w", err)
	}
	modifier, err := domain.NewPriceModifier(domain.ModifierKind(kind), name, description, value, currency, priority)
	if err != nil {
		return domain.PriceModifier{}, fmt.Errorf("failed to rebuild modifier: %w", err)
	}
	return modifier, nil
}

func tierTypeStrings(tiers []domain.PricingTier) []string {
	out := make([]string, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, string(t.Type()))
	}
	return out
}

func tiersFromStrings(values []string) ([]domain.PricingTier, error) {
	out := make([]domain.PricingTier, 0, len(values))
	for _, v := range values {
		tier, err := domain.NewPricingTier(domain.PricingTierType(v))
		if err != nil {
			return nil, fmt.Errorf("failed to rebuild pricing tier: %w", err)
		}
		out = append(out, tier)
	}
	return out, nil
}
