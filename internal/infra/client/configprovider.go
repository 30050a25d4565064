package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/observability"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/resilience"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/port"
)

// ConfigClient fetches the interest configuration from a remote provider,
// caching snapshots for the configured TTL.
type ConfigClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	cache      port.Cache[domain.InterestConfiguration]
	metrics    *observability.Metrics
}

// NewConfigClient creates a new ConfigClient.
func NewConfigClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, cache port.Cache[domain.InterestConfiguration], metrics *observability.Metrics) *ConfigClient {
	return &ConfigClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		cache:      cache,
		metrics:    metrics,
	}
}

// InterestConfiguration returns the current configuration snapshot.
// A provider failure surfaces as ErrConfigurationUnavailable; there is no
// silent defaulting here.
func (c *ConfigClient) InterestConfiguration(ctx context.Context) (domain.InterestConfiguration, error) {
	ctx, span := tracer.Start(ctx, "ConfigClient.InterestConfiguration")
	defer span.End()

	if cached, ok := c.cache.Get("interest"); ok {
		c.metrics.IncrCacheHit("config")
		return cached, nil
	}
	c.metrics.IncrCacheMiss("config")

	var snapshot domain.InterestConfiguration

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/interest-configuration", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("config API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&snapshot)
		})
		return nil, innerErr
	})

	if err != nil {
		c.metrics.IncrExternalError("config")
		return domain.InterestConfiguration{}, &domain.ErrConfigurationUnavailable{Err: err}
	}

	c.cache.Set("interest", snapshot)
	return snapshot, nil
}

// StaticConfigProvider serves a fixed configuration snapshot. It is the
// default backend for single-node deployments where the configuration is
// owned by environment variables.
type StaticConfigProvider struct {
	snapshot domain.InterestConfiguration
}

// NewStaticConfigProvider wraps a fixed snapshot as a ConfigurationProvider.
func NewStaticConfigProvider(snapshot domain.InterestConfiguration) *StaticConfigProvider {
	return &StaticConfigProvider{snapshot: snapshot}
}

// InterestConfiguration returns the fixed snapshot.
func (p *StaticConfigProvider) InterestConfiguration(_ context.Context) (domain.InterestConfiguration, error) {
	return p.snapshot, nil
}
