package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kapu/wykra-go/internal/domain"
	"github.com/kapu/wykra-go/internal/util"
	"github.com/kapu/wykra-go/pkg/errors"
)

// ProfileAnalyzer is what the Instagram routes need from the service layer.
type ProfileAnalyzer interface {
	FetchProfile(ctx context.Context, username string) (*domain.Profile, error)
	Analyze(ctx context.Context, username string) (*domain.Analysis, error)
}

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// Health answers GET /health.
func Health(environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "environment": environment})
	}
}

// Analysis answers GET /api/v1/instagram/analysis?profile=<username>.
// The lookup and the model call share one deadline of timeout.
func Analysis(svc ProfileAnalyzer, timeout time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := profileParam(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		analysis, err := svc.Analyze(ctx, username)
		if err != nil {
			respondError(c, logger, username, err)
			return
		}
		c.JSON(http.StatusOK, analysis)
	}
}

// Profile answers GET /api/v1/instagram/profile?profile=<username> with the normalized profile.
func Profile(svc ProfileAnalyzer, timeout time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, ok := profileParam(c)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		profile, err := svc.FetchProfile(ctx, username)
		if err != nil {
			respondError(c, logger, username, err)
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

func profileParam(c *gin.Context) (string, bool) {
	username := strings.TrimPrefix(strings.TrimSpace(c.Query("profile")), "@")
	if username == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "query parameter 'profile' is required", Code: errors.CodeValidation})
		return "", false
	}
	if !util.IsValidHandle(username) {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid Instagram username", Code: errors.CodeValidation})
		return "", false
	}
	return username, true
}

// respondError maps validation failures to 400 and every lookup or agent
// failure to 502 upstream unavailable.
func respondError(c *gin.Context, logger *zap.Logger, username string, err error) {
	code := errors.Code(err)

	var validationErr *errors.ValidationError
	if stderrors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: validationErr.Message, Code: code})
		return
	}

	logger.Warn("Upstream failure",
		zap.String("username", username),
		zap.String("code", code),
		zap.Error(err),
	)
	c.JSON(http.StatusBadGateway, errorResponse{Detail: err.Error(), Code: code})
}
