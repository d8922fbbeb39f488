package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwkim-lab/revisit/pkg/metrics"
)

func NewHTTPServer(addr string, h *Handlers) *http.Server {
	r := gin.New()
	r.Use(gin.Recovery(), Observability())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/campaigns", Auth())
	api.POST("", h.CreateCampaign)
	api.GET("", h.ListCampaigns)
	api.GET("/statistics/monthly", h.MonthlyStatistics)
	api.GET("/:id", h.GetCampaign)
	api.PATCH("/:id", h.UpdateCampaign)
	api.DELETE("/:id", h.DeleteCampaign)
	api.PATCH("/:id/status/:action", h.ChangeStatus)
	api.POST("/:id/review", h.SubmitReview)

	return &http.Server{
		Addr:    addr,
		Handler: r,
	}
}
