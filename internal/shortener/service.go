package shortener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/tenant"
	"go.uber.org/zap"
)

// DomainSelector finds a verified custom domain owned by an organization.
// ok is false when the hostname is unknown to the organization or not yet verified.
type DomainSelector interface {
	SelectDomain(ctx context.Context, orgID uuid.UUID, hostname string) (id uuid.UUID, ok bool, err error)
}

// CreateRequest holds the caller-supplied fields of a new link.
type CreateRequest struct {
	URL        string
	CustomCode string
	Domain     string
	ExpiresAt  string
}

// Service creates short links for organizations.
type Service struct {
	repo          Repository
	generator     *Generator
	gate          *tenant.Gate
	domains       DomainSelector
	defaultDomain string
	now           func() time.Time
	logger        *zap.Logger
}

// NewService creates a new link creation service.
func NewService(
	repo Repository,
	generator *Generator,
	gate *tenant.Gate,
	domains DomainSelector,
	defaultDomain string,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:          repo,
		generator:     generator,
		gate:          gate,
		domains:       domains,
		defaultDomain: defaultDomain,
		now:           time.Now,
		logger:        logger,
	}
}

// Host returns the hostname a link is served from.
func (s *Service) Host(link *Link) string {
	if link.Domain != "" {
		return link.Domain
	}

	return s.defaultDomain
}

// Create validates req, reserves quota and persists a new link for org.
func (s *Service) Create(ctx context.Context, org *tenant.Organization, req CreateRequest) (*Link, error) {
	if err := s.gate.Check(org); err != nil {
		return nil, err
	}

	originalURL, err := ValidateURL(req.URL)
	if err != nil {
		return nil, err
	}

	if req.CustomCode != "" {
		if err = ValidateCode(req.CustomCode); err != nil {
			return nil, err
		}
	}

	now := s.now()

	expiresAt, err := ParseExpiry(req.ExpiresAt, now)
	if err != nil {
		return nil, err
	}

	link := &Link{
		ID:             uuid.New(),
		OrganizationID: org.ID,
		OriginalURL:    originalURL,
		ExpiresAt:      expiresAt,
		Active:         true,
		CreatedAt:      now.UTC(),
	}

	if hostname := strings.ToLower(strings.TrimSpace(req.Domain)); hostname != "" {
		domainID, ok, err := s.domains.SelectDomain(ctx, org.ID, hostname)
		if err != nil {
			return nil, fmt.Errorf("select domain: %w", err)
		}

		if !ok {
			return nil, ErrInvalidDomain
		}

		link.DomainID = &domainID
		link.Domain = hostname
	}

	generated, err := s.generator.Generate(ctx, req.CustomCode, org.ID)
	if err != nil {
		return nil, err
	}

	if generated.Collision {
		s.logger.Info("short code collision, escalated length",
			zap.String("organization_id", org.ID.String()),
			zap.String("code", string(generated.Code)),
		)
	}

	link.Code = generated.Code

	// The snapshot is only updated once the reservation has committed with the link.
	reserved := *org

	err = s.repo.CreateReserved(ctx, link, func(ctx context.Context, orgs tenant.Reserver) error {
		return s.gate.Within(orgs).CheckAndReserve(ctx, &reserved)
	})
	if err != nil {
		return nil, err
	}

	org.MonthlyURLsUsed = reserved.MonthlyURLsUsed
	org.MonthlyURLLimit = reserved.MonthlyURLLimit

	s.logger.Info("short link created",
		zap.String("organization_id", org.ID.String()),
		zap.String("code", string(link.Code)),
		zap.String("host", s.Host(link)),
	)

	return link, nil
}

// Get returns a link owned by the organization, regardless of whether it still resolves.
func (s *Service) Get(ctx context.Context, orgID uuid.UUID, code Code) (*Link, error) {
	return s.repo.FindByCode(ctx, code, &orgID)
}
