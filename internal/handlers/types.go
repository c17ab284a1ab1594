package handlers

import (
	"time"

	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/domains"
)

// CreateShortURLRequest is the request for creating a short URL.
type CreateShortURLRequest struct {
	AuthHeaders

	Body struct {
		URL        string `doc:"The URL to shorten"                      example:"https://example.com/very/long/path" json:"url,omitempty"`
		CustomCode string `doc:"Optional custom short code"              example:"promo1"                             json:"customCode,omitempty"`
		Domain     string `doc:"Optional verified custom domain"         example:"go.acme.com"                        json:"domain,omitempty"`
		ExpiresAt  string `doc:"Optional RFC 3339 expiry timestamp"      example:"2030-01-01T00:00:00Z"               json:"expiresAt,omitempty"`
	}
}

// ShortURLData describes a newly created short URL.
type ShortURLData struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode"`
	ShortURL    string     `json:"shortUrl"`
	Domain      string     `json:"domain"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	ClickCount  int64      `json:"clickCount"`
}

// CreateShortURLResponse is the response for a successfully created short URL.
type CreateShortURLResponse struct {
	Location string `doc:"The short URL location" header:"Location"`
	Body     struct {
		Success bool         `json:"success"`
		Data    ShortURLData `json:"data"`
	}
}

// LookupRequest is the request for looking up one of the organization's short URLs.
type LookupRequest struct {
	AuthHeaders

	Code string `doc:"The short code" example:"promo1" query:"code"`
}

// LinkData describes a stored short URL.
type LinkData struct {
	ID          string     `json:"id"`
	OriginalURL string     `json:"originalUrl"`
	ShortCode   string     `json:"shortCode"`
	ClickCount  int64      `json:"clickCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

// LookupResponse is the response for a short URL lookup.
type LookupResponse struct {
	Body struct {
		Success bool     `json:"success"`
		Data    LinkData `json:"data"`
	}
}

// CodeRequest addresses a short code in the path.
type CodeRequest struct {
	Code string `doc:"The short code" example:"promo1" path:"code"`
}

// TrackResponse answers a click-tracking call. Status is 200, 404 or 410.
type TrackResponse struct {
	Status int
	Body   struct {
		Success bool   `json:"success"`
		URL     string `json:"url,omitempty"`
		Error   string `json:"error,omitempty"`
	}
}

// PageResponse is a redirect or a rendered HTML page.
type PageResponse struct {
	Status       int
	Location     string `header:"Location"`
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// DomainData describes a custom domain.
type DomainData struct {
	ID                   string         `json:"id"`
	Domain               string         `json:"domain"`
	VerificationMethod   domains.Method `json:"verificationMethod"`
	VerificationCode     string         `json:"verificationCode,omitempty"`
	VerificationAttempts int            `json:"verificationAttempts"`
	LastAttemptAt        *time.Time     `json:"lastVerificationAttempt"`
	VerifiedAt           *time.Time     `json:"verifiedAt"`
	Active               bool           `json:"isActive"`
	CreatedAt            time.Time      `json:"createdAt"`
}

func toDomainData(d *domains.Domain) DomainData {
	return DomainData{
		ID:                   d.ID.String(),
		Domain:               d.Hostname,
		VerificationMethod:   d.Method,
		VerificationCode:     d.VerificationCode,
		VerificationAttempts: d.Attempts,
		LastAttemptAt:        d.LastAttemptAt,
		VerifiedAt:           d.VerifiedAt,
		Active:               d.Active,
		CreatedAt:            d.CreatedAt,
	}
}

// ListDomainsRequest is the request for listing the organization's domains.
type ListDomainsRequest struct {
	AuthHeaders
}

// ListDomainsResponse lists domains, newest first.
type ListDomainsResponse struct {
	Body struct {
		Success bool         `json:"success"`
		Data    []DomainData `json:"data"`
	}
}

// CreateDomainRequest registers a custom domain.
type CreateDomainRequest struct {
	AuthHeaders

	Body struct {
		Domain string `doc:"Hostname to register" example:"go.acme.com" json:"domain,omitempty"`
	}
}

// DomainResponse wraps a single domain.
type DomainResponse struct {
	Body struct {
		Success bool       `json:"success"`
		Data    DomainData `json:"data"`
	}
}

// DomainRequest addresses one of the organization's domains.
type DomainRequest struct {
	AuthHeaders

	ID string `doc:"Domain ID" path:"id"`
}

// VerifyDomainResponse reports a verification attempt. Status is 200 or 400.
type VerifyDomainResponse struct {
	Status int
	Body   struct {
		Success bool             `json:"success"`
		Error   string           `json:"error,omitempty"`
		Code    string           `json:"code,omitempty"`
		Message string           `json:"message"`
		Data    *VerifiedDomain  `json:"data,omitempty"`
		Details *domains.Details `json:"details,omitempty"`
	}
}

// VerifiedDomain pairs the verified domain with the verification outcome.
type VerifiedDomain struct {
	Domain       DomainData     `json:"domain"`
	Verification domains.Result `json:"verification"`
}

// TXTChallengeResponse tells the organization which TXT record to publish.
type TXTChallengeResponse struct {
	Body struct {
		Success bool `json:"success"`
		Data    struct {
			Domain           string `json:"domain"`
			VerificationCode string `json:"verificationCode"`
			TXTRecord        struct {
				Host  string `json:"host"`
				Value string `json:"value"`
			} `json:"txtRecord"`
		} `json:"data"`
	}
}

// DeleteDomainResponse confirms a deletion.
type DeleteDomainResponse struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Data    struct {
			DeletedDomain string `json:"deletedDomain"`
			DomainID      string `json:"domainId"`
		} `json:"data"`
	}
}

// AnalyticsRequest is the request for the organization's click summary.
type AnalyticsRequest struct {
	AuthHeaders

	Days int `default:"30" doc:"Window length in days, capped at 365" query:"days"`
}

// AnalyticsResponse wraps the click summary.
type AnalyticsResponse struct {
	Body struct {
		Success bool               `json:"success"`
		Data    *analytics.Summary `json:"data"`
	}
}
