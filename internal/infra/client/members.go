package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// MemberClient resolves members against the membership subsystem's API.
type MemberClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewMemberClient creates a new MemberClient.
func NewMemberClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *MemberClient {
	return &MemberClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// ResolveMember fetches a member with retry, circuit breaker, and tracing.
func (c *MemberClient) ResolveMember(ctx context.Context, memberID string) (*domain.Member, error) {
	ctx, span := tracer.Start(ctx, "MemberClient.ResolveMember")
	defer span.End()
	span.SetAttributes(attribute.String("member.id", memberID))

	var member domain.Member

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/members/%s", c.baseURL, memberID)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return &domain.ErrNotFound{Resource: "member", ID: memberID}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("member API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&member)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &member, nil
	})

	if err != nil {
		// NotFound is a domain answer, not an infrastructure failure.
		if nf, ok := notFound(err); ok {
			return nil, nf
		}
		return nil, &domain.ErrExternalService{Service: "members", Err: err}
	}

	return result.(*domain.Member), nil
}

func notFound(err error) (*domain.ErrNotFound, bool) {
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return nf, true
	}
	return nil, false
}
