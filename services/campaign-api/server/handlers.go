package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwkim-lab/revisit/internal/apperr"
	"github.com/jwkim-lab/revisit/internal/cache"
	"github.com/jwkim-lab/revisit/internal/campaign"
	"github.com/jwkim-lab/revisit/internal/stats"
	"github.com/jwkim-lab/revisit/pkg/logx"
)

// campaignAPI is the slice of the service core the handlers consume.
type campaignAPI interface {
	CreateCampaign(ctx context.Context, userID int64, req campaign.CreateReq) (*campaign.Campaign, error)
	FindAllByUserID(ctx context.Context, userID int64) ([]campaign.Response, error)
	FindCampaigns(ctx context.Context, userID int64, statusFilter string, sort cache.Sort) ([]campaign.Response, error)
	FindByCampaignIDAndUser(ctx context.Context, campaignID, userID int64) (campaign.Response, error)
	UpdateCampaign(ctx context.Context, campaignID, userID int64, patch campaign.Patch) (*campaign.Campaign, error)
	DeleteCampaign(ctx context.Context, campaignID, userID int64) error
	ChangeStatus(ctx context.Context, campaignID, userID int64, action campaign.Action, visitDate *time.Time) error
	SubmitReview(ctx context.Context, campaignID, userID int64, reviewURL string) error
	GetMonthlyStatistics(ctx context.Context, userID int64, startMonth, endMonth, groupBy string, categoryID *int64) (stats.MonthlyStatistics, error)
}

type Handlers struct {
	Svc campaignAPI
}

func NewHandlers(svc campaignAPI) *Handlers {
	return &Handlers{Svc: svc}
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// writeError maps the service error taxonomy onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrInvalidStateTransition), errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logx.L().Errorw("internal_error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func campaignID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign id"})
		return 0, false
	}
	return id, true
}

func (h *Handlers) CreateCampaign(c *gin.Context) {
	var req campaign.CreateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	created, err := h.Svc.CreateCampaign(ctx, userID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign.ToResponse(created))
}

func (h *Handlers) ListCampaigns(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := c.Query("status")
	sort := cache.ParseSort(c.Query("sort"))

	var (
		out []campaign.Response
		err error
	)
	if status == "" && c.Query("sort") == "" {
		out, err = h.Svc.FindAllByUserID(ctx, userID(c))
	} else {
		out, err = h.Svc.FindCampaigns(ctx, userID(c), status, sort)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handlers) GetCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Svc.FindByCampaignIDAndUser(ctx, id, userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handlers) UpdateCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	var patch campaign.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	updated, err := h.Svc.UpdateCampaign(ctx, id, userID(c), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign.ToResponse(updated))
}

func (h *Handlers) DeleteCampaign(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.DeleteCampaign(ctx, id, userID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type changeStatusReq struct {
	VisitDate *string `json:"visitDate"`
}

func (h *Handlers) ChangeStatus(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}
	action, err := campaign.ParseAction(c.Param("action"))
	if err != nil {
		writeError(c, err)
		return
	}

	var req changeStatusReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	var visitDate *time.Time
	if req.VisitDate != nil {
		d, err := campaign.ParseDate(*req.VisitDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "visitDate must be YYYY-MM-DD"})
			return
		}
		visitDate = &d
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.ChangeStatus(ctx, id, userID(c), action, visitDate); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type submitReviewReq struct {
	ReviewURL string `json:"reviewUrl"`
}

func (h *Handlers) SubmitReview(c *gin.Context) {
	id, ok := campaignID(c)
	if !ok {
		return
	}

	reviewURL := c.Query("reviewUrl")
	if reviewURL == "" {
		var req submitReviewReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		reviewURL = req.ReviewURL
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.Svc.SubmitReview(ctx, id, userID(c), reviewURL); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "review submitted"})
}

func (h *Handlers) MonthlyStatistics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var categoryID *int64
	if raw := c.Query("categoryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return
		}
		categoryID = &id
	}

	out, err := h.Svc.GetMonthlyStatistics(ctx,
		userID(c),
		c.Query("startMonth"),
		c.Query("endMonth"),
		c.DefaultQuery("base", "deadline"),
		categoryID,
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
