package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/model"
	"github.com/ibnahmadCoded/agent-pay-demo/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.GatewayVerifier = (*Client)(nil)

// Client implements GatewayVerifier using direct HTTP calls against the
// gateway's verification endpoint.
type Client struct {
	baseURL     string
	accessToken string
	client      *http.Client
}

// NewClient creates a verification client for one gateway deployment.
// accessToken is the bearer credential attached to every pull; its
// provisioning is external configuration.
func NewClient(baseURL, accessToken string) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 15 * time.Second},
	}
}

// VerifyPayment implements GatewayVerifier.VerifyPayment.
func (c *Client) VerifyPayment(ctx context.Context, paymentID string) (*model.VerificationResult, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is required", domain.ErrInvalidArgument)
	}

	reqURL := fmt.Sprintf("%s/api/payments/verify/%s", c.baseURL, url.PathEscape(paymentID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// not-found, invalid request and unauthorized all collapse into one
		// declined outcome on this surface
		return nil, fmt.Errorf("%w: http %d", domain.ErrGatewayDeclined, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var result model.VerificationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, body: %s", err, string(body))
	}

	return &result, nil
}
