// Package service implements the campaign lifecycle core: write operations
// that transition state and invalidate the cache, cache-aside list reads,
// and best-effort review-event emission after commit.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwkim-lab/revisit/internal/apperr"
	"github.com/jwkim-lab/revisit/internal/cache"
	"github.com/jwkim-lab/revisit/internal/campaign"
	"github.com/jwkim-lab/revisit/internal/stats"
	"github.com/jwkim-lab/revisit/internal/store"
	"github.com/jwkim-lab/revisit/pkg/logx"
	"github.com/jwkim-lab/revisit/pkg/metrics"
)

// CampaignStore is the persistence collaborator contract.
type CampaignStore interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	InsertCampaign(ctx context.Context, c *campaign.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*campaign.Campaign, error)
	GetCampaignForUser(ctx context.Context, id, userID int64) (*campaign.Campaign, error)
	GetCampaignForUserTx(ctx context.Context, tx *sql.Tx, id, userID int64) (*campaign.Campaign, error)
	ListByUser(ctx context.Context, userID int64) ([]*campaign.Campaign, error)
	ListByUserAndStatus(ctx context.Context, userID int64, status campaign.Status, sortColumn string, desc bool) ([]*campaign.Campaign, error)
	ListByUserAndMonthRange(ctx context.Context, userID int64, dateColumn string, start, end time.Time, categoryID *int64) ([]*campaign.Campaign, error)
	UpdateCampaign(ctx context.Context, c *campaign.Campaign) error
	UpdateCampaignStateTx(ctx context.Context, tx *sql.Tx, c *campaign.Campaign) error
	DeleteCampaign(ctx context.Context, id int64) error
	GetPlatform(ctx context.Context, id int64) (store.Platform, error)
	GetCategory(ctx context.Context, id int64) (store.Category, error)
	UserExists(ctx context.Context, id int64) (bool, error)
}

// Publisher is the event bus contract. Delivery is at-least-once; the
// reward consumer deduplicates.
type Publisher interface {
	PublishJSON(ctx context.Context, body []byte) error
}

type CampaignService struct {
	Store    CampaignStore
	Cache    cache.Store
	Pub      Publisher
	CacheTTL time.Duration
}

func New(st CampaignStore, c cache.Store, pub Publisher, cacheTTL time.Duration) *CampaignService {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &CampaignService{Store: st, Cache: c, Pub: pub, CacheTTL: cacheTTL}
}

// evictAll clears every cached campaign list after a committed write. Coarse
// on purpose: any write, any user, everything goes. Eviction failures are
// logged; the write itself already committed.
func (s *CampaignService) evictAll(ctx context.Context) {
	if err := s.Cache.EvictAll(ctx); err != nil {
		logx.L().Errorw("cache_evict_error", "error", err)
	}
}

func (s *CampaignService) CreateCampaign(ctx context.Context, userID int64, req campaign.CreateReq) (*campaign.Campaign, error) {
	ok, err := s.Store.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %d", apperr.ErrNotFound, userID)
	}

	platform, err := s.Store.GetPlatform(ctx, req.PlatformID)
	if err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if _, err := s.Store.GetCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	start, err := campaign.ParseDate(req.ExperienceStartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: experienceStartDate: %v", apperr.ErrInvalidArgument, err)
	}
	end, err := campaign.ParseDate(req.ExperienceEndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: experienceEndDate: %v", apperr.ErrInvalidArgument, err)
	}
	deadline, err := campaign.ParseDate(req.Deadline)
	if err != nil {
		return nil, fmt.Errorf("%w: deadline: %v", apperr.ErrInvalidArgument, err)
	}
	if end.Before(start) || deadline.Before(end) {
		return nil, fmt.Errorf("%w: require experienceStart <= experienceEnd <= deadline", apperr.ErrInvalidArgument)
	}
	if len(req.AvailableDays) == 0 {
		return nil, fmt.Errorf("%w: availableDays must not be empty", apperr.ErrInvalidArgument)
	}
	if negative(req.SupportAmount) || negative(req.ExtraCost) {
		return nil, fmt.Errorf("%w: amounts must be non-negative", apperr.ErrInvalidArgument)
	}

	c := &campaign.Campaign{
		UserID:              userID,
		PlatformID:          platform.ID,
		PlatformName:        platform.Name,
		CategoryID:          req.CategoryID,
		RewardEnabled:       platform.RewardEnabled,
		RewardPolicyID:      platform.RewardPolicyID,
		StoreName:           req.StoreName,
		StorePhone:          req.StorePhone,
		Address:             req.Address,
		SupportAmount:       req.SupportAmount,
		ExtraCost:           req.ExtraCost,
		ReceiptReview:       req.ReceiptReview,
		ExperienceStartDate: start,
		ExperienceEndDate:   end,
		Deadline:            deadline,
		AvailableDays:       campaign.JoinDays(req.AvailableDays),
		AvailableTime:       req.AvailableTime,
		Status:              campaign.StatusPending,
	}
	if err := s.Store.InsertCampaign(ctx, c); err != nil {
		return nil, err
	}
	s.evictAll(ctx)
	return c, nil
}

// FindAllByUserID is the unfiltered cached list read.
func (s *CampaignService) FindAllByUserID(ctx context.Context, userID int64) ([]campaign.Response, error) {
	return s.FindCampaigns(ctx, userID, "", cache.DefaultSort)
}

// FindCampaigns serves the filtered list through the cache. On a hit the
// store is never touched; racing misses may both query and both populate,
// which is fine.
func (s *CampaignService) FindCampaigns(ctx context.Context, userID int64, statusFilter string, sort cache.Sort) ([]campaign.Response, error) {
	statusKey := cache.StatusAll
	var status campaign.Status
	if statusFilter != "" {
		st, err := campaign.ParseStatus(statusFilter)
		if err != nil {
			return nil, err
		}
		status = st
		statusKey = string(st)
	}

	key := cache.Key(userID, statusKey, sort)
	if val, hit, err := s.Cache.Get(ctx, key); err != nil {
		logx.L().Warnw("cache_get_error", "key", key, "error", err)
	} else if hit {
		var out []campaign.Response
		if derr := json.Unmarshal(val, &out); derr != nil {
			logx.L().Warnw("cache_decode_error", "key", key, "error", derr)
		} else {
			return out, nil
		}
	}

	var (
		rows []*campaign.Campaign
		err  error
	)
	if statusFilter == "" {
		rows, err = s.Store.ListByUser(ctx, userID)
	} else {
		rows, err = s.Store.ListByUserAndStatus(ctx, userID, status, sort.Column(), sort.Direction == "desc")
	}
	if err != nil {
		return nil, err
	}

	out := campaign.ToResponses(rows)
	if val, err := json.Marshal(out); err == nil {
		if err := s.Cache.Set(ctx, key, val, s.CacheTTL); err != nil {
			logx.L().Warnw("cache_set_error", "key", key, "error", err)
		}
	}
	return out, nil
}

func (s *CampaignService) FindByCampaignIDAndUser(ctx context.Context, campaignID, userID int64) (campaign.Response, error) {
	c, err := s.Store.GetCampaignForUser(ctx, campaignID, userID)
	if err != nil {
		return campaign.Response{}, err
	}
	return campaign.ToResponse(c), nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, campaignID, userID int64, patch campaign.Patch) (*campaign.Campaign, error) {
	c, err := s.Store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("%w: campaign %d belongs to another user", apperr.ErrForbidden, campaignID)
	}

	if patch.PlatformID != nil {
		platform, err := s.Store.GetPlatform(ctx, *patch.PlatformID)
		if err != nil {
			return nil, err
		}
		c.PlatformID = platform.ID
		c.PlatformName = platform.Name
	}
	if patch.CategoryID != nil {
		category, err := s.Store.GetCategory(ctx, *patch.CategoryID)
		if err != nil {
			return nil, err
		}
		c.CategoryID = &category.ID
	}
	if patch.StoreName != nil {
		c.StoreName = *patch.StoreName
	}
	if patch.StorePhone != nil {
		c.StorePhone = *patch.StorePhone
	}
	if patch.Address != nil {
		c.Address = *patch.Address
	}
	if patch.SupportAmount != nil {
		if *patch.SupportAmount < 0 {
			return nil, fmt.Errorf("%w: supportAmount must be non-negative", apperr.ErrInvalidArgument)
		}
		c.SupportAmount = patch.SupportAmount
	}
	if patch.ExtraCost != nil {
		if *patch.ExtraCost < 0 {
			return nil, fmt.Errorf("%w: extraCost must be non-negative", apperr.ErrInvalidArgument)
		}
		c.ExtraCost = patch.ExtraCost
	}
	if patch.ReceiptReview != nil {
		c.ReceiptReview = *patch.ReceiptReview
	}
	if patch.AvailableDays != nil {
		c.AvailableDays = campaign.JoinDays(*patch.AvailableDays)
	}
	if patch.AvailableTime != nil {
		c.AvailableTime = *patch.AvailableTime
	}

	if err := s.Store.UpdateCampaign(ctx, c); err != nil {
		return nil, err
	}
	s.evictAll(ctx)
	return c, nil
}

func (s *CampaignService) DeleteCampaign(ctx context.Context, campaignID, userID int64) error {
	c, err := s.Store.GetCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return fmt.Errorf("%w: campaign %d belongs to another user", apperr.ErrForbidden, campaignID)
	}
	if err := s.Store.DeleteCampaign(ctx, campaignID); err != nil {
		return err
	}
	s.evictAll(ctx)
	return nil
}

// ChangeStatus loads the campaign with a row lock, applies the requested
// transition and persists it in one transaction. The cache is evicted only
// after the commit is acknowledged.
func (s *CampaignService) ChangeStatus(ctx context.Context, campaignID, userID int64, action campaign.Action, visitDate *time.Time) error {
	err := s.Store.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.Store.GetCampaignForUserTx(ctx, tx, campaignID, userID)
		if err != nil {
			return err
		}
		if err := c.Apply(action, visitDate); err != nil {
			return err
		}
		return s.Store.UpdateCampaignStateTx(ctx, tx, c)
	})
	if err != nil {
		return err
	}
	s.evictAll(ctx)
	return nil
}

// SubmitReview completes the campaign through the review path and, after
// the commit, publishes the review-submitted event. Publication failures
// are logged and never surface to the caller: the DONE status in the
// campaign row is authoritative regardless of delivery outcome.
func (s *CampaignService) SubmitReview(ctx context.Context, campaignID, userID int64, reviewURL string) error {
	if reviewURL == "" {
		return fmt.Errorf("%w: reviewUrl is required", apperr.ErrInvalidArgument)
	}

	err := s.Store.WithTx(ctx, func(tx *sql.Tx) error {
		c, err := s.Store.GetCampaignForUserTx(ctx, tx, campaignID, userID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return fmt.Errorf("%w: campaign %d is not yours", apperr.ErrForbidden, campaignID)
			}
			return err
		}
		if err := c.CompleteReview(reviewURL); err != nil {
			return err
		}
		return s.Store.UpdateCampaignStateTx(ctx, tx, c)
	})
	if err != nil {
		return err
	}
	s.evictAll(ctx)
	s.publishReviewSubmitted(campaignID, userID, reviewURL)
	return nil
}

func (s *CampaignService) publishReviewSubmitted(campaignID, userID int64, reviewURL string) {
	event := campaign.ReviewSubmittedEvent{
		CampaignID: campaignID,
		UserID:     userID,
		ReviewURL:  reviewURL,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logx.L().Errorw("review_event_marshal_error", "campaign_id", campaignID, "error", err)
		return
	}

	// Detached from the request context: the caller's response does not
	// wait on broker acknowledgement.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Pub.PublishJSON(ctx, payload); err != nil {
		metrics.ReviewEventsFailedTotal.Inc()
		logx.L().Errorw("review_event_publish_error",
			"campaign_id", campaignID, "user_id", userID, "error", err)
		return
	}
	metrics.ReviewEventsPublishedTotal.Inc()
	logx.L().Infow("review_event_published",
		"campaign_id", campaignID, "user_id", userID, "review_url", reviewURL)
}

// GetMonthlyStatistics loads the user's campaigns whose grouping date falls
// in the month range and aggregates them.
func (s *CampaignService) GetMonthlyStatistics(ctx context.Context, userID int64, startMonth, endMonth, groupByRaw string, categoryID *int64) (stats.MonthlyStatistics, error) {
	groupBy, err := stats.ParseGroupBy(groupByRaw)
	if err != nil {
		return stats.MonthlyStatistics{}, err
	}
	start, err := stats.ParseMonth(startMonth)
	if err != nil {
		return stats.MonthlyStatistics{}, err
	}
	end, err := stats.ParseMonth(endMonth)
	if err != nil {
		return stats.MonthlyStatistics{}, err
	}
	if end.Before(start) {
		return stats.MonthlyStatistics{}, fmt.Errorf("%w: endMonth before startMonth", apperr.ErrInvalidArgument)
	}

	dateColumn := "deadline"
	if groupBy == stats.GroupByVisitDate {
		dateColumn = "visit_date"
	}
	rangeEnd := end.AddDate(0, 1, -1) // last day of endMonth

	rows, err := s.Store.ListByUserAndMonthRange(ctx, userID, dateColumn, start, rangeEnd, categoryID)
	if err != nil {
		return stats.MonthlyStatistics{}, err
	}
	return stats.Aggregate(rows, start, end, groupBy), nil
}

func negative(v *int64) bool { return v != nil && *v < 0 }
