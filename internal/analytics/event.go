package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TopicLinkClicked is the stream carrying click events from the API to the consumer.
const TopicLinkClicked = "link.clicked"

// Unknown labels a geography that could not be determined.
const Unknown = "Unknown"

// ClickEvent is one immutable record of a redirect-triggering visit.
type ClickEvent struct {
	ID             uuid.UUID `json:"id"`
	LinkID         uuid.UUID `json:"linkId"`
	OrganizationID uuid.UUID `json:"organizationId"`
	Code           string    `json:"code"`
	ClientIP       string    `json:"clientIp"`
	UserAgent      string    `json:"userAgent"`
	Referrer       string    `json:"referrer,omitempty"`
	Country        string    `json:"country"`
	City           string    `json:"city"`
	DeviceType     string    `json:"deviceType"`
	Browser        string    `json:"browser"`
	OS             string    `json:"os"`
	ClickedAt      time.Time `json:"clickedAt"`
}

// MessageID keys the stream message so redeliveries carry the same identity.
func (e *ClickEvent) MessageID() string {
	return e.ID.String()
}

// ClientMeta holds HTTP request metadata for analytics.
type ClientMeta struct {
	ClientIP  string
	UserAgent string
	Referrer  string
	Host      string
}

type clientMetaKey struct{}

// ContextWithClientMeta adds request metadata to context.
func ContextWithClientMeta(ctx context.Context, meta ClientMeta) context.Context {
	return context.WithValue(ctx, clientMetaKey{}, meta)
}

// ClientMetaFromContext extracts request metadata from context.
func ClientMetaFromContext(ctx context.Context) ClientMeta {
	if v, ok := ctx.Value(clientMetaKey{}).(ClientMeta); ok {
		return v
	}

	return ClientMeta{}
}
