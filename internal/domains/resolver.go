package domains

import (
	"context"
	"errors"
	"net"
	"strings"
)

var errNoCNAME = errors.New("no cname record")

// DNSResolver performs the lookups needed to prove domain ownership.
type DNSResolver interface {
	LookupIPv4(ctx context.Context, host string) ([]string, error)
	LookupCNAME(ctx context.Context, host string) ([]string, error)
	LookupTXT(ctx context.Context, host string) ([]string, error)
}

// NetResolver adapts net.Resolver to DNSResolver.
type NetResolver struct {
	resolver *net.Resolver
}

// NewNetResolver creates a resolver backed by the system DNS configuration.
func NewNetResolver() *NetResolver {
	return &NetResolver{resolver: net.DefaultResolver}
}

func (r *NetResolver) LookupIPv4(ctx context.Context, host string) ([]string, error) {
	ips, err := r.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ip.String())
	}

	return out, nil
}

// LookupCNAME returns the canonical name without its trailing dot.
// A host that is its own canonical name has no CNAME record.
func (r *NetResolver) LookupCNAME(ctx context.Context, host string) ([]string, error) {
	cname, err := r.resolver.LookupCNAME(ctx, host)
	if err != nil {
		return nil, err
	}

	cname = strings.TrimSuffix(cname, ".")
	if strings.EqualFold(cname, strings.TrimSuffix(host, ".")) {
		return nil, errNoCNAME
	}

	return []string{cname}, nil
}

func (r *NetResolver) LookupTXT(ctx context.Context, host string) ([]string, error) {
	return r.resolver.LookupTXT(ctx, host)
}
