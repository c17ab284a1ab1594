package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/serroba/shortlinks/internal/shortener"
	"go.uber.org/zap"
)

// RedisCacheFinder wraps a Finder with Redis caching for resolution reads.
// The fields the resolver depends on (URL, expiry) never change after creation, and
// expiry is checked against the clock on every read, so cached entries cannot resolve
// an expired link. Click counts in the cache are stale and must not be served from it.
type RedisCacheFinder struct {
	finder shortener.Finder
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ shortener.Finder = (*RedisCacheFinder)(nil)

// NewRedisCacheFinder creates a new Redis-cached finder decorator.
func NewRedisCacheFinder(finder shortener.Finder, client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCacheFinder {
	return &RedisCacheFinder{
		finder: finder,
		client: client,
		prefix: "link:",
		ttl:    ttl,
		logger: logger,
	}
}

// FindByCode checks the cache first and populates it on a miss. Misses in the
// underlying finder are not cached.
func (r *RedisCacheFinder) FindByCode(ctx context.Context, code shortener.Code, orgID *uuid.UUID) (*shortener.Link, error) {
	key := r.key(code, orgID)

	if link, ok := r.getFromCache(ctx, key); ok {
		return link, nil
	}

	link, err := r.finder.FindByCode(ctx, code, orgID)
	if err != nil {
		return nil, err
	}

	r.cacheLink(ctx, key, link)

	return link, nil
}

func (r *RedisCacheFinder) key(code shortener.Code, orgID *uuid.UUID) string {
	scope := "*"
	if orgID != nil {
		scope = orgID.String()
	}

	return r.prefix + scope + ":" + string(code)
}

func (r *RedisCacheFinder) getFromCache(ctx context.Context, key string) (*shortener.Link, bool) {
	result, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		r.logger.Warn("link cache read failed", zap.String("key", key), zap.Error(err))

		return nil, false
	}

	if len(result) == 0 {
		return nil, false
	}

	link, err := decodeLink(result)
	if err != nil {
		r.logger.Warn("discarding malformed cached link", zap.String("key", key), zap.Error(err))

		return nil, false
	}

	return link, true
}

func (r *RedisCacheFinder) cacheLink(ctx context.Context, key string, link *shortener.Link) {
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, encodeLink(link))

	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Warn("link cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Shutdown is a no-op for RedisCacheFinder (client managed externally).
func (r *RedisCacheFinder) Shutdown() error {
	return nil
}

func encodeLink(link *shortener.Link) map[string]any {
	fields := map[string]any{
		"id":              link.ID.String(),
		"organization_id": link.OrganizationID.String(),
		"original_url":    link.OriginalURL,
		"code":            string(link.Code),
		"domain":          link.Domain,
		"domain_id":       "",
		"expires_at":      "",
		"active":          strconv.FormatBool(link.Active),
		"created_at":      link.CreatedAt.UnixNano(),
	}

	if link.DomainID != nil {
		fields["domain_id"] = link.DomainID.String()
	}

	if link.ExpiresAt != nil {
		fields["expires_at"] = strconv.FormatInt(link.ExpiresAt.UnixNano(), 10)
	}

	return fields
}

func decodeLink(fields map[string]string) (*shortener.Link, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, err
	}

	orgID, err := uuid.Parse(fields["organization_id"])
	if err != nil {
		return nil, err
	}

	active, err := strconv.ParseBool(fields["active"])
	if err != nil {
		return nil, err
	}

	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, err
	}

	link := &shortener.Link{
		ID:             id,
		OrganizationID: orgID,
		OriginalURL:    fields["original_url"],
		Code:           shortener.Code(fields["code"]),
		Domain:         fields["domain"],
		Active:         active,
		CreatedAt:      time.Unix(0, createdAt).UTC(),
	}

	if raw := fields["domain_id"]; raw != "" {
		domainID, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}

		link.DomainID = &domainID
	}

	if raw := fields["expires_at"]; raw != "" {
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}

		expiresAt := time.Unix(0, nanos).UTC()
		link.ExpiresAt = &expiresAt
	}

	return link, nil
}
