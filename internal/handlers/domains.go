package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/domains"
	"go.uber.org/zap"
)

// DomainService manages an organization's custom domains.
type DomainService interface {
	List(ctx context.Context, orgID uuid.UUID) ([]domains.Domain, error)
	Create(ctx context.Context, orgID uuid.UUID, hostname string) (*domains.Domain, error)
	GenerateTXT(ctx context.Context, orgID, id uuid.UUID) (*domains.Challenge, error)
	Verify(ctx context.Context, orgID, id uuid.UUID) (*domains.Domain, domains.Result, error)
	Delete(ctx context.Context, orgID, id uuid.UUID) (*domains.Domain, error)
}

// DomainHandler handles custom domain management.
type DomainHandler struct {
	auth    Authenticator
	domains DomainService
	logger  *zap.Logger
}

// NewDomainHandler creates a new domain handler.
func NewDomainHandler(auth Authenticator, svc DomainService, logger *zap.Logger) *DomainHandler {
	return &DomainHandler{auth: auth, domains: svc, logger: logger}
}

func (h *DomainHandler) ListDomains(ctx context.Context, req *ListDomainsRequest) (*ListDomainsResponse, error) {
	org, err := h.auth.Authenticate(ctx, req.Key())
	if err != nil {
		return nil, respond(h.logger, "failed to authenticate", err)
	}

	list, err := h.domains.List(ctx, org.ID)
	if err != nil {
		return nil, respond(h.logger, "failed to list domains", err,
			zap.String("organization_id", org.ID.String()))
	}

	resp := &ListDomainsResponse{}
	resp.Body.Success = true
	resp.Body.Data = make([]DomainData, 0, len(list))

	for i := range list {
		resp.Body.Data = append(resp.Body.Data, toDomainData(&list[i]))
	}

	return resp, nil
}

func (h *DomainHandler) CreateDomain(ctx context.Context, req *CreateDomainRequest) (*DomainResponse, error) {
	org, err := h.auth.Authenticate(ctx, req.Key())
	if err != nil {
		return nil, respond(h.logger, "failed to authenticate", err)
	}

	if strings.TrimSpace(req.Body.Domain) == "" {
		return nil, newAPIError(http.StatusBadRequest, CodeMissingDomain, "Domain is required")
	}

	domain, err := h.domains.Create(ctx, org.ID, req.Body.Domain)
	if err != nil {
		return nil, respond(h.logger, "failed to create domain", err,
			zap.String("organization_id", org.ID.String()))
	}

	h.logger.Info("domain registered",
		zap.String("organization_id", org.ID.String()),
		zap.String("domain", domain.Hostname),
	)

	resp := &DomainResponse{}
	resp.Body.Success = true
	resp.Body.Data = toDomainData(domain)

	return resp, nil
}

func (h *DomainHandler) GenerateTXT(ctx context.Context, req *DomainRequest) (*TXTChallengeResponse, error) {
	orgID, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}

	challenge, err := h.domains.GenerateTXT(ctx, orgID, id)
	if err != nil {
		return nil, respond(h.logger, "failed to generate txt challenge", err, zap.String("domain_id", req.ID))
	}

	resp := &TXTChallengeResponse{}
	resp.Body.Success = true
	resp.Body.Data.Domain = challenge.Domain
	resp.Body.Data.VerificationCode = challenge.VerificationCode
	resp.Body.Data.TXTRecord.Host = challenge.Host
	resp.Body.Data.TXTRecord.Value = challenge.Value

	return resp, nil
}

// VerifyDomain runs DNS verification. A failed verification is a 400 carrying the diagnostics.
func (h *DomainHandler) VerifyDomain(ctx context.Context, req *DomainRequest) (*VerifyDomainResponse, error) {
	orgID, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}

	domain, result, err := h.domains.Verify(ctx, orgID, id)
	if err != nil {
		return nil, respond(h.logger, "failed to verify domain", err, zap.String("domain_id", req.ID))
	}

	resp := &VerifyDomainResponse{}

	if !result.IsVerified {
		message := result.Details.Error
		if message == "" {
			message = "DNS configuration not found"
		}

		resp.Status = http.StatusBadRequest
		resp.Body.Error = "Domain verification failed"
		resp.Body.Code = "VERIFICATION_FAILED"
		resp.Body.Message = message
		resp.Body.Details = &result.Details

		return resp, nil
	}

	resp.Status = http.StatusOK
	resp.Body.Success = true
	resp.Body.Message = "Domain verified successfully via " + string(result.Method)
	resp.Body.Data = &VerifiedDomain{
		Domain:       toDomainData(domain),
		Verification: result,
	}

	return resp, nil
}

func (h *DomainHandler) DeleteDomain(ctx context.Context, req *DomainRequest) (*DeleteDomainResponse, error) {
	orgID, id, err := h.target(ctx, req)
	if err != nil {
		return nil, err
	}

	domain, err := h.domains.Delete(ctx, orgID, id)
	if err != nil {
		return nil, respond(h.logger, "failed to delete domain", err, zap.String("domain_id", req.ID))
	}

	h.logger.Info("domain deleted",
		zap.String("organization_id", orgID.String()),
		zap.String("domain", domain.Hostname),
	)

	resp := &DeleteDomainResponse{}
	resp.Body.Success = true
	resp.Body.Message = "Domain deleted successfully"
	resp.Body.Data.DeletedDomain = domain.Hostname
	resp.Body.Data.DomainID = domain.ID.String()

	return resp, nil
}

// target authenticates the request and parses the domain ID. Malformed IDs are reported as not found.
func (h *DomainHandler) target(ctx context.Context, req *DomainRequest) (uuid.UUID, uuid.UUID, error) {
	org, err := h.auth.Authenticate(ctx, req.Key())
	if err != nil {
		return uuid.Nil, uuid.Nil, respond(h.logger, "failed to authenticate", err)
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, respond(h.logger, "invalid domain id", domains.ErrNotFound)
	}

	return org.ID, id, nil
}
