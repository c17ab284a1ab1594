package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/serroba/shortlinks/internal/analytics"
	"github.com/serroba/shortlinks/internal/shortener"
	"github.com/serroba/shortlinks/internal/tenant"
	"go.uber.org/zap"
)

// LinkService creates and reads an organization's short links.
type LinkService interface {
	Create(ctx context.Context, org *tenant.Organization, req shortener.CreateRequest) (*shortener.Link, error)
	Get(ctx context.Context, orgID uuid.UUID, code shortener.Code) (*shortener.Link, error)
	Host(link *shortener.Link) string
}

// LinkResolver maps short codes to live destinations.
type LinkResolver interface {
	Resolve(ctx context.Context, code shortener.Code, orgID *uuid.UUID) (*shortener.Resolution, error)
}

// HostScoper finds the organization owning a verified custom domain.
type HostScoper interface {
	OrganizationForHost(ctx context.Context, host string) (uuid.UUID, bool, error)
}

// ClickRecorder records a click without blocking the caller.
type ClickRecorder interface {
	Record(target analytics.Target, meta analytics.ClientMeta)
}

// LinkHandler handles short link creation, lookup, tracking and redirects.
type LinkHandler struct {
	auth          Authenticator
	links         LinkService
	resolver      LinkResolver
	hosts         HostScoper
	recorder      ClickRecorder
	defaultDomain string
	logger        *zap.Logger
}

// NewLinkHandler creates a new link handler. Requests arriving on defaultDomain
// resolve codes across all organizations.
func NewLinkHandler(
	auth Authenticator,
	links LinkService,
	resolver LinkResolver,
	hosts HostScoper,
	recorder ClickRecorder,
	defaultDomain string,
	logger *zap.Logger,
) *LinkHandler {
	return &LinkHandler{
		auth:          auth,
		links:         links,
		resolver:      resolver,
		hosts:         hosts,
		recorder:      recorder,
		defaultDomain: defaultDomain,
		logger:        logger,
	}
}

func (h *LinkHandler) CreateShortURL(ctx context.Context, req *CreateShortURLRequest) (*CreateShortURLResponse, error) {
	org, err := h.auth.AuthenticateActive(ctx, req.Key())
	if err != nil {
		return nil, respond(h.logger, "failed to authenticate", err)
	}

	link, err := h.links.Create(ctx, org, shortener.CreateRequest{
		URL:        req.Body.URL,
		CustomCode: req.Body.CustomCode,
		Domain:     req.Body.Domain,
		ExpiresAt:  req.Body.ExpiresAt,
	})
	if err != nil {
		return nil, respond(h.logger, "failed to create short url", err,
			zap.String("organization_id", org.ID.String()))
	}

	host := h.links.Host(link)
	shortURL := shortener.ShortURL(host, link.Code)

	resp := &CreateShortURLResponse{}
	resp.Location = shortURL
	resp.Body.Success = true
	resp.Body.Data = ShortURLData{
		ID:          link.ID.String(),
		OriginalURL: link.OriginalURL,
		ShortCode:   string(link.Code),
		ShortURL:    shortURL,
		Domain:      host,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
		ClickCount:  link.ClickCount,
	}

	return resp, nil
}

func (h *LinkHandler) LookupShortURL(ctx context.Context, req *LookupRequest) (*LookupResponse, error) {
	org, err := h.auth.Authenticate(ctx, req.Key())
	if err != nil {
		return nil, respond(h.logger, "failed to authenticate", err)
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, newAPIError(http.StatusBadRequest, CodeMissingCode, "Short code is required")
	}

	link, err := h.links.Get(ctx, org.ID, shortener.Code(code))
	if err != nil {
		return nil, respond(h.logger, "failed to look up short url", err, zap.String("code", code))
	}

	resp := &LookupResponse{}
	resp.Body.Success = true
	resp.Body.Data = LinkData{
		ID:          link.ID.String(),
		OriginalURL: link.OriginalURL,
		ShortCode:   string(link.Code),
		ClickCount:  link.ClickCount,
		CreatedAt:   link.CreatedAt,
		ExpiresAt:   link.ExpiresAt,
	}

	return resp, nil
}

// TrackClick resolves a code for client-side redirects and records the click.
func (h *LinkHandler) TrackClick(ctx context.Context, req *CodeRequest) (*TrackResponse, error) {
	resp := &TrackResponse{}

	res, err := h.resolve(ctx, req.Code)

	switch {
	case err == nil:
		resp.Status = http.StatusOK
		resp.Body.Success = true
		resp.Body.URL = res.URL
	case errors.Is(err, shortener.ErrExpired), errors.Is(err, shortener.ErrInactive):
		resp.Status = http.StatusGone
		resp.Body.Error = "expired"
	case errors.Is(err, shortener.ErrNotFound):
		resp.Status = http.StatusNotFound
		resp.Body.Error = "not found"
	default:
		h.logger.Error("failed to resolve short url", zap.String("code", req.Code), zap.Error(err))

		return nil, newAPIError(http.StatusInternalServerError, CodeServerError, "Internal server error")
	}

	return resp, nil
}

// RedirectToURL redirects to the original URL, or renders a 404, 410 or 500 page.
func (h *LinkHandler) RedirectToURL(ctx context.Context, req *CodeRequest) (*PageResponse, error) {
	res, err := h.resolve(ctx, req.Code)

	switch {
	case err == nil:
		return redirect(res.URL), nil
	case errors.Is(err, shortener.ErrExpired), errors.Is(err, shortener.ErrInactive):
		return expiredPage(req.Code), nil
	case errors.Is(err, shortener.ErrNotFound):
		return notFoundPage(req.Code), nil
	default:
		h.logger.Error("failed to resolve short url", zap.String("code", req.Code), zap.Error(err))

		return errorPage(), nil
	}
}

// resolve looks the code up, scoped to the organization owning the request host
// when it is a verified custom domain, and records a click on success.
func (h *LinkHandler) resolve(ctx context.Context, code string) (*shortener.Resolution, error) {
	meta := analytics.ClientMetaFromContext(ctx)

	orgID, err := h.scope(ctx, meta.Host)
	if err != nil {
		return nil, err
	}

	res, err := h.resolver.Resolve(ctx, shortener.Code(code), orgID)
	if err != nil {
		return nil, err
	}

	h.recorder.Record(analytics.Target{
		LinkID:         res.LinkID,
		OrganizationID: res.OrganizationID,
		Code:           string(res.Code),
	}, meta)

	return res, nil
}

func (h *LinkHandler) scope(ctx context.Context, host string) (*uuid.UUID, error) {
	if host == "" || strings.EqualFold(host, h.defaultDomain) || strings.EqualFold(hostname(host), hostname(h.defaultDomain)) {
		return nil, nil
	}

	orgID, ok, err := h.hosts.OrganizationForHost(ctx, host)
	if err != nil || !ok {
		return nil, err
	}

	return &orgID, nil
}

func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}

	return host
}
