package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/analytics"
	"go.uber.org/zap"
)

// Summarizer builds click summaries for an organization.
type Summarizer interface {
	Summarize(ctx context.Context, orgID uuid.UUID, window analytics.Window) (*analytics.Summary, error)
}

// AnalyticsHandler serves the organization's click analytics.
type AnalyticsHandler struct {
	auth       Authenticator
	summarizer Summarizer
	logger     *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(auth Authenticator, summarizer Summarizer, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{auth: auth, summarizer: summarizer, logger: logger}
}

func (h *AnalyticsHandler) GetAnalytics(ctx context.Context, req *AnalyticsRequest) (*AnalyticsResponse, error) {
	org, err := h.auth.Authenticate(ctx, req.Key())
	if err != nil {
		return nil, respond(h.logger, "failed to authenticate", err)
	}

	summary, err := h.summarizer.Summarize(ctx, org.ID, analytics.Window{Days: req.Days})
	if err != nil {
		return nil, respond(h.logger, "failed to summarize analytics", err,
			zap.String("organization_id", org.ID.String()))
	}

	resp := &AnalyticsResponse{}
	resp.Body.Success = true
	resp.Body.Data = summary

	return resp, nil
}
