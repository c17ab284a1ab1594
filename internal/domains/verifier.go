package domains

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultLookupTimeout bounds each DNS lookup performed by the verifier.
const DefaultLookupTimeout = 5 * time.Second

// Details carries the diagnostic data gathered during verification.
type Details struct {
	ExpectedIP    string   `json:"expectedIP,omitempty"`
	ActualIPs     []string `json:"actualIPs,omitempty"`
	ExpectedCNAME string   `json:"expectedCNAME,omitempty"`
	ActualCNAMEs  []string `json:"actualCNAME,omitempty"`
	TXTRecords    []string `json:"txtRecords,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Result is the outcome of a verification attempt. Failure is a result, not an error.
type Result struct {
	IsVerified bool    `json:"isVerified"`
	Method     Method  `json:"method"`
	Details    Details `json:"details"`
}

// Verifier checks DNS for proof of domain ownership.
type Verifier struct {
	resolver    DNSResolver
	serverIP    string
	cnameTarget string
	timeout     time.Duration
}

// NewVerifier creates a verifier expecting A records pointing at serverIP or a CNAME to cnameTarget.
func NewVerifier(resolver DNSResolver, serverIP, cnameTarget string, timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}

	return &Verifier{
		resolver:    resolver,
		serverIP:    serverIP,
		cnameTarget: strings.TrimSuffix(cnameTarget, "."),
		timeout:     timeout,
	}
}

// Verify tries A, CNAME and TXT in that order and stops at the first match.
// A failed lookup only rules out its own method.
func (v *Verifier) Verify(ctx context.Context, domain *Domain) Result {
	details := Details{
		ExpectedIP:    v.serverIP,
		ExpectedCNAME: v.cnameTarget,
	}

	var failures []string

	ips, err := v.lookup(ctx, domain.Hostname, v.resolver.LookupIPv4)
	if err != nil {
		failures = append(failures, fmt.Sprintf("A record lookup failed: %v", err))
	}

	details.ActualIPs = ips

	if v.serverIP != "" && slices.Contains(ips, v.serverIP) {
		return Result{IsVerified: true, Method: MethodARecord, Details: details}
	}

	cnames, err := v.lookup(ctx, domain.Hostname, v.resolver.LookupCNAME)
	if err != nil {
		failures = append(failures, fmt.Sprintf("CNAME lookup failed: %v", err))
	}

	details.ActualCNAMEs = cnames

	if v.cnameTarget != "" && slices.ContainsFunc(cnames, v.matchesCNAME) {
		return Result{IsVerified: true, Method: MethodCNAME, Details: details}
	}

	if v.checkTXT(ctx, domain, &details, &failures) {
		return Result{IsVerified: true, Method: MethodTXT, Details: details}
	}

	return failed(details, "No valid DNS configuration found. Please configure A record, CNAME, or TXT verification.", failures)
}

// VerifyChallenge accepts only the TXT record carrying the domain's own challenge code.
// It is used when another organization has also registered the hostname, since an
// A record or CNAME pointing at the shared server cannot tell the two apart.
func (v *Verifier) VerifyChallenge(ctx context.Context, domain *Domain) Result {
	var (
		details  Details
		failures []string
	)

	if v.checkTXT(ctx, domain, &details, &failures) {
		return Result{IsVerified: true, Method: MethodTXT, Details: details}
	}

	return failed(details, "Domain is registered by another organization. "+
		"Publish the TXT challenge to prove ownership.", failures)
}

// checkTXT requires the code issued for this domain, not just any challenge value.
func (v *Verifier) checkTXT(ctx context.Context, domain *Domain, details *Details, failures *[]string) bool {
	records, err := v.lookup(ctx, domain.TXTHost(), v.resolver.LookupTXT)
	if err != nil {
		*failures = append(*failures, fmt.Sprintf("TXT record lookup failed: %v", err))
	}

	details.TXTRecords = records

	expected := domain.TXTValue()

	return expected != "" && slices.Contains(records, expected)
}

func failed(details Details, msg string, failures []string) Result {
	details.Error = msg
	if len(failures) > 0 {
		details.Error += " (" + strings.Join(failures, "; ") + ")"
	}

	return Result{IsVerified: false, Method: MethodNone, Details: details}
}

func (v *Verifier) matchesCNAME(record string) bool {
	return strings.EqualFold(strings.TrimSuffix(record, "."), v.cnameTarget)
}

func (v *Verifier) lookup(
	ctx context.Context,
	host string,
	fn func(context.Context, string) ([]string, error),
) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	return fn(ctx, host)
}
