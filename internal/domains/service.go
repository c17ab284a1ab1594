package domains

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

const (
	challengeAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	challengeLength   = 26
)

// Challenge describes the TXT record an organization must publish.
type Challenge struct {
	Domain           string `json:"domain"`
	VerificationCode string `json:"verificationCode"`
	Host             string `json:"host"`
	Value            string `json:"value"`
}

// Service manages custom domains and their ownership verification.
type Service struct {
	repo          Repository
	verifier      *Verifier
	challengeCode func() string
	now           func() time.Time
	logger        *zap.Logger
}

// NewService creates a new domain service.
func NewService(repo Repository, verifier *Verifier, logger *zap.Logger) (*Service, error) {
	gen, err := nanoid.CustomASCII(challengeAlphabet, challengeLength)
	if err != nil {
		return nil, err
	}

	return &Service{
		repo:          repo,
		verifier:      verifier,
		challengeCode: gen,
		now:           time.Now,
		logger:        logger,
	}, nil
}

// Create registers a hostname for an organization, pending verification.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, rawHostname string) (*Domain, error) {
	hostname, err := NormalizeHostname(rawHostname)
	if err != nil {
		return nil, err
	}

	if err = s.ensureUnclaimed(ctx, orgID, uuid.Nil, hostname); err != nil {
		return nil, err
	}

	domain := &Domain{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Hostname:       hostname,
		Method:         MethodNone,
		CreatedAt:      s.now().UTC(),
	}

	if err = s.repo.Create(ctx, domain); err != nil {
		return nil, err
	}

	return domain, nil
}

// List returns the organization's domains, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]Domain, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

// GenerateTXT issues a fresh challenge code for the domain.
func (s *Service) GenerateTXT(ctx context.Context, orgID, id uuid.UUID) (*Challenge, error) {
	domain, err := s.repo.SetVerificationCode(ctx, orgID, id, s.challengeCode())
	if err != nil {
		return nil, err
	}

	return &Challenge{
		Domain:           domain.Hostname,
		VerificationCode: domain.VerificationCode,
		Host:             domain.TXTHost(),
		Value:            domain.TXTValue(),
	}, nil
}

// Verify records an attempt and runs fresh DNS checks. Verification may be retried any number of times.
// A domain that is already verified stays verified when a later attempt fails.
// A hostname verified by another organization cannot be verified again, and one that another
// organization has also registered only verifies through the TXT challenge.
func (s *Service) Verify(ctx context.Context, orgID, id uuid.UUID) (*Domain, Result, error) {
	domain, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, Result{}, err
	}

	if err = s.ensureUnclaimed(ctx, orgID, domain.ID, domain.Hostname); err != nil {
		return nil, Result{}, err
	}

	claims, err := s.repo.CountClaims(ctx, domain.Hostname, orgID)
	if err != nil {
		return nil, Result{}, fmt.Errorf("count domain claims: %w", err)
	}

	now := s.now().UTC()
	if err = s.repo.RecordAttempt(ctx, domain.ID, now); err != nil {
		return nil, Result{}, fmt.Errorf("record verification attempt: %w", err)
	}

	domain.Attempts++
	domain.LastAttemptAt = &now

	var result Result
	if claims > 0 {
		result = s.verifier.VerifyChallenge(ctx, domain)
	} else {
		result = s.verifier.Verify(ctx, domain)
	}
	if !result.IsVerified {
		s.logger.Info("domain verification failed",
			zap.String("domain", domain.Hostname),
			zap.Int("attempts", domain.Attempts),
			zap.String("reason", result.Details.Error),
		)

		return domain, result, nil
	}

	verified, err := s.repo.MarkVerified(ctx, domain.ID, result.Method, now)
	if err != nil {
		if errors.Is(err, ErrDomainExists) {
			return nil, Result{}, errVerifiedElsewhere
		}

		return nil, Result{}, fmt.Errorf("mark domain verified: %w", err)
	}

	s.logger.Info("domain verified",
		zap.String("domain", verified.Hostname),
		zap.String("method", string(result.Method)),
	)

	return verified, result, nil
}

// Delete removes a domain that no short link references.
func (s *Service) Delete(ctx context.Context, orgID, id uuid.UUID) (*Domain, error) {
	domain, err := s.repo.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	links, err := s.repo.CountLinks(ctx, orgID, id)
	if err != nil {
		return nil, fmt.Errorf("count domain links: %w", err)
	}

	if links > 0 {
		return nil, &InUseError{Links: links}
	}

	if err = s.repo.Delete(ctx, orgID, id); err != nil {
		return nil, err
	}

	return domain, nil
}

// SelectDomain finds a verified domain of the organization for link creation.
func (s *Service) SelectDomain(ctx context.Context, orgID uuid.UUID, hostname string) (uuid.UUID, bool, error) {
	domain, err := s.repo.FindByHostname(ctx, orgID, strings.ToLower(hostname))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return uuid.Nil, false, nil
		}

		return uuid.Nil, false, err
	}

	if !domain.Usable() {
		return uuid.Nil, false, nil
	}

	return domain.ID, true, nil
}

// OrganizationForHost returns the owner of a verified custom domain serving host.
func (s *Service) OrganizationForHost(ctx context.Context, host string) (uuid.UUID, bool, error) {
	hostname, err := NormalizeHostname(stripPort(host))
	if err != nil {
		return uuid.Nil, false, nil
	}

	domain, err := s.repo.FindVerifiedByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return uuid.Nil, false, nil
		}

		return uuid.Nil, false, err
	}

	return domain.OrganizationID, true, nil
}

// ensureUnclaimed fails when another organization holds a verified domain for hostname.
// self is the caller's own domain record, or uuid.Nil before it exists.
func (s *Service) ensureUnclaimed(ctx context.Context, orgID, self uuid.UUID, hostname string) error {
	holder, err := s.repo.FindVerifiedByHostname(ctx, hostname)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}

		return fmt.Errorf("find verified domain: %w", err)
	}

	if holder.OrganizationID == orgID || holder.ID == self {
		return nil
	}

	s.logger.Warn("domain already verified by another organization",
		zap.String("domain", hostname),
		zap.String("organization_id", orgID.String()),
	)

	return errVerifiedElsewhere
}

func stripPort(host string) string {
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host[idx:], "]") {
		return host[:idx]
	}

	return host
}
