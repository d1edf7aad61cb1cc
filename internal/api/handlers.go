package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/enrichment/internal/domain"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// Enricher turns inputs into records, one per input, in order.
type Enricher interface {
	ProcessMany(ctx context.Context, inputs []domain.BusinessInput) []domain.BusinessRecord
}

// EnrichRequest is the POST /api/v1/enrich body.
type EnrichRequest struct {
	Businesses []domain.BusinessInput `binding:"required,min=1,dive" json:"businesses"`
}

// EnrichResponse lists one record per requested business.
type EnrichResponse struct {
	Records  []domain.BusinessRecord `json:"records"`
	Count    int                     `json:"count"`
	Duration string                  `json:"duration"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Handler serves the enrichment endpoints.
type Handler struct {
	enricher Enricher
	maxBatch int
	logger   logger.Logger
}

// NewHandler creates a handler. A non-positive maxBatch removes the cap.
func NewHandler(enricher Enricher, maxBatch int, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{enricher: enricher, maxBatch: maxBatch, logger: log}
}

// Enrich handles POST /api/v1/enrich.
func (h *Handler) Enrich(c *gin.Context) {
	var req EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Rejected enrich request", logger.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}
	if h.maxBatch > 0 && len(req.Businesses) > h.maxBatch {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("at most %d businesses per request", h.maxBatch),
			Code:  "BATCH_TOO_LARGE",
		})
		return
	}
	for i, b := range req.Businesses {
		if b.Name == "" {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: fmt.Sprintf("businesses[%d].name is required", i),
				Code:  "INVALID_REQUEST",
			})
			return
		}
	}

	ctx := c.Request.Context()
	log := logger.FromContext(ctx)
	start := time.Now()
	records := h.enricher.ProcessMany(ctx, req.Businesses)
	log.Info("Enrichment request served",
		logger.Int("businesses", len(req.Businesses)),
		logger.Duration("duration", time.Since(start)),
	)

	c.JSON(http.StatusOK, EnrichResponse{
		Records:  records,
		Count:    len(records),
		Duration: time.Since(start).String(),
	})
}
