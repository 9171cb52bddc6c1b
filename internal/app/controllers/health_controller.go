package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/campuslink/internal/app/models/dto"
)

// Pinger is satisfied by the database pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionCounter reports open socket connections
type ConnectionCounter interface {
	ClientCount() int
}

// HealthController reports whether the service can reach its dependencies
type HealthController struct {
	db      Pinger
	sockets ConnectionCounter
}

// NewHealthController creates a new HealthController
func NewHealthController(db Pinger, sockets ConnectionCounter) *HealthController {
	return &HealthController{db: db, sockets: sockets}
}

type healthResponse struct {
	Status      string `json:"status" example:"ok"`
	Database    string `json:"database" example:"up"`
	Connections int    `json:"connections" example:"12"`
}

// Health checks the database connection
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=healthResponse}
// @Failure 503 {object} dto.ErrorResponse "Database unreachable"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := c.db.Ping(pingCtx); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unreachable").
			WithSeverity(dto.ErrorSeverityCritical)
		ctx.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(errorDetail))
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(healthResponse{
		Status:      "ok",
		Database:    "up",
		Connections: c.sockets.ClientCount(),
	}, ""))
}
