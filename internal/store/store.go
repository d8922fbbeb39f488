// Package store is the persistence collaborator: campaigns, reference data
// and the reward ledger, over hand-written SQL. Row-level atomicity for
// state transitions comes from WithTx plus SELECT ... FOR UPDATE; callers
// never see a half-applied transition.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jwkim-lab/revisit/internal/apperr"
	"github.com/jwkim-lab/revisit/internal/campaign"
)

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) *Store { return &Store{DB: db} }

// Platform is the reference-data snapshot consulted at campaign creation.
type Platform struct {
	ID             int64
	Name           string
	RewardEnabled  bool
	RewardPolicyID *int64
}

type Category struct {
	ID   int64
	Name string
}

func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

const campaignColumns = `
	c.id, c.user_id, c.platform_id, p.name, c.category_id,
	c.reward_enabled, c.reward_policy_id,
	c.store_name, c.store_phone, c.address,
	c.support_amount, c.extra_cost, c.receipt_review,
	c.experience_start_date, c.experience_end_date, c.deadline, c.visit_date,
	c.available_days, c.available_time, c.status, c.review_url, c.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (*campaign.Campaign, error) {
	var c campaign.Campaign
	var status string
	err := row.Scan(
		&c.ID, &c.UserID, &c.PlatformID, &c.PlatformName, &c.CategoryID,
		&c.RewardEnabled, &c.RewardPolicyID,
		&c.StoreName, &c.StorePhone, &c.Address,
		&c.SupportAmount, &c.ExtraCost, &c.ReceiptReview,
		&c.ExperienceStartDate, &c.ExperienceEndDate, &c.Deadline, &c.VisitDate,
		&c.AvailableDays, &c.AvailableTime, &status, &c.ReviewURL, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = campaign.Status(status)
	return &c, nil
}

func (s *Store) InsertCampaign(ctx context.Context, c *campaign.Campaign) error {
	return s.DB.QueryRowContext(ctx, `
		INSERT INTO campaigns (
			user_id, platform_id, category_id, reward_enabled, reward_policy_id,
			store_name, store_phone, address,
			support_amount, extra_cost, receipt_review,
			experience_start_date, experience_end_date, deadline,
			available_days, available_time, status
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		RETURNING id, created_at
	`,
		c.UserID, c.PlatformID, c.CategoryID, c.RewardEnabled, c.RewardPolicyID,
		c.StoreName, c.StorePhone, c.Address,
		c.SupportAmount, c.ExtraCost, c.ReceiptReview,
		c.ExperienceStartDate, c.ExperienceEndDate, c.Deadline,
		c.AvailableDays, c.AvailableTime, string(c.Status),
	).Scan(&c.ID, &c.CreatedAt)
}

func (s *Store) GetCampaign(ctx context.Context, id int64) (*campaign.Campaign, error) {
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c JOIN platforms p ON p.id = c.platform_id
		WHERE c.id = $1
	`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: campaign %d", apperr.ErrNotFound, id)
	}
	return c, err
}

// GetCampaignForUser is the compound (id, owner) lookup. Absence does not
// say whether the row is missing or owned by someone else.
func (s *Store) GetCampaignForUser(ctx context.Context, id, userID int64) (*campaign.Campaign, error) {
	c, err := scanCampaign(s.DB.QueryRowContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c JOIN platforms p ON p.id = c.platform_id
		WHERE c.id = $1 AND c.user_id = $2
	`, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: campaign %d", apperr.ErrNotFound, id)
	}
	return c, err
}

// GetCampaignForUserTx locks the row for the duration of the transaction so
// concurrent transitions on the same campaign serialize.
func (s *Store) GetCampaignForUserTx(ctx context.Context, tx *sql.Tx, id, userID int64) (*campaign.Campaign, error) {
	c, err := scanCampaign(tx.QueryRowContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c JOIN platforms p ON p.id = c.platform_id
		WHERE c.id = $1 AND c.user_id = $2
		FOR UPDATE OF c
	`, id, userID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: campaign %d", apperr.ErrNotFound, id)
	}
	return c, err
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]*campaign.Campaign, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c JOIN platforms p ON p.id = c.platform_id
		WHERE c.user_id = $1
		ORDER BY c.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByUserAndStatus filters by status and orders by an allowlisted column.
// sortColumn must come through cache.Sort.Column, never raw input.
func (s *Store) ListByUserAndStatus(ctx context.Context, userID int64, status campaign.Status, sortColumn string, desc bool) ([]*campaign.Campaign, error) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns c JOIN platforms p ON p.id = c.platform_id
		WHERE c.user_id = $1 AND c.status = $2
		ORDER BY c.`+sortColumn+` `+dir+`
	`, userID, string(status))
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// ListByUserAndMonthRange returns campaigns whose grouping date falls inside
// [start, end]. dateColumn is "visit_date" or "deadline", validated upstream.
func (s *Store) ListByUserAndMonthRange(ctx context.Context, userID int64, dateColumn string, start, end time.Time, categoryID *int64) ([]*campaign.Campaign, error) {
	query := `
		SELECT` + campaignColumns + `
		FROM campaigns c JOIN platforms p ON p.id = c.platform_id
		WHERE c.user_id = $1 AND c.` + dateColumn + ` >= $2 AND c.` + dateColumn + ` <= $3`
	args := []any{userID, start, end}
	if categoryID != nil {
		query += ` AND c.category_id = $4`
		args = append(args, *categoryID)
	}
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]*campaign.Campaign, error) {
	defer rows.Close()
	var out []*campaign.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// UpdateCampaign persists the mutable fields. Status is intentionally not
// in the column list; it only moves through UpdateCampaignStateTx.
func (s *Store) UpdateCampaign(ctx context.Context, c *campaign.Campaign) error {
	_, err := s.DB.ExecContext(ctx, `
		UPDATE campaigns
		   SET platform_id=$1, category_id=$2,
		       store_name=$3, store_phone=$4, address=$5,
		       support_amount=$6, extra_cost=$7, receipt_review=$8,
		       available_days=$9, available_time=$10
		 WHERE id=$11
	`,
		c.PlatformID, c.CategoryID,
		c.StoreName, c.StorePhone, c.Address,
		c.SupportAmount, c.ExtraCost, c.ReceiptReview,
		c.AvailableDays, c.AvailableTime,
		c.ID,
	)
	return err
}

// UpdateCampaignStateTx writes the transition outcome inside the caller's
// transaction: status plus the two fields only transitions may set.
func (s *Store) UpdateCampaignStateTx(ctx context.Context, tx *sql.Tx, c *campaign.Campaign) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE campaigns
		   SET status=$1, visit_date=$2, review_url=$3
		 WHERE id=$4
	`, string(c.Status), c.VisitDate, c.ReviewURL, c.ID)
	return err
}

func (s *Store) DeleteCampaign(ctx context.Context, id int64) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM campaigns WHERE id=$1`, id)
	return err
}

func (s *Store) GetPlatform(ctx context.Context, id int64) (Platform, error) {
	var p Platform
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name, reward_enabled, reward_policy_id FROM platforms WHERE id=$1
	`, id).Scan(&p.ID, &p.Name, &p.RewardEnabled, &p.RewardPolicyID)
	if err == sql.ErrNoRows {
		return Platform{}, fmt.Errorf("%w: platform %d", apperr.ErrNotFound, id)
	}
	return p, err
}

func (s *Store) GetCategory(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, name FROM categories WHERE id=$1
	`, id).Scan(&c.ID, &c.Name)
	if err == sql.ErrNoRows {
		return Category{}, fmt.Errorf("%w: category %d", apperr.ErrNotFound, id)
	}
	return c, err
}

func (s *Store) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)
	`, id).Scan(&exists)
	return exists, err
}

// RewardExists checks the de-duplication record for an already issued
// reward.
func (s *Store) RewardExists(ctx context.Context, campaignID, userID int64) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM rewards WHERE campaign_id=$1 AND user_id=$2)
	`, campaignID, userID).Scan(&exists)
	return exists, err
}

// IssueReward inserts the reward row, which is also the de-duplication
// record; the unique (campaign_id, user_id) constraint makes issuance and
// dedup a single atomic statement. Returns false when the reward already
// existed.
func (s *Store) IssueReward(ctx context.Context, campaignID, userID, amount int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO rewards (campaign_id, user_id, amount, issued_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (campaign_id, user_id) DO NOTHING
	`, campaignID, userID, amount)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
