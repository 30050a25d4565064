package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/koperasi-dev/simpan-pinjam-go/internal/domain"
	"github.com/koperasi-dev/simpan-pinjam-go/internal/infra/resilience"
)

// DocumentClient queries the document registry for registered document types.
type DocumentClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewDocumentClient creates a new DocumentClient.
func NewDocumentClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *DocumentClient {
	return &DocumentClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// HasDocument reports whether the given document type is registered for the
// application. A missing registration is a plain false, not an error.
func (c *DocumentClient) HasDocument(ctx context.Context, applicationID string, doc domain.DocumentType) (bool, error) {
	ctx, span := tracer.Start(ctx, "DocumentClient.HasDocument")
	defer span.End()
	span.SetAttributes(
		attribute.String("application.id", applicationID),
		attribute.String("document.type", string(doc)),
	)

	var present bool

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/v1/applications/%s/documents/%s", c.baseURL, applicationID, doc)
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
				present = false
				return nil
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("document API returned status %d", resp.StatusCode)
			}

			var body struct {
				Registered bool `json:"registered"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return err
			}
			present = body.Registered
			return nil
		})
		return nil, innerErr
	})

	if err != nil {
		return false, &domain.ErrExternalService{Service: "documents", Err: err}
	}

	return present, nil
}
