// Package daraja implements the HTTP client for Safaricom's Daraja API:
// the OAuth client-credentials grant and the B2C payment request.
package daraja

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/application"
	"github.com/mwangaza-labs/mpesa-b2c-gateway/internal/domain"
)

const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"

	authURI = "/oauth/v1/generate?grant_type=client_credentials"
	b2cURI  = "/mpesa/b2c/v3/paymentrequest"
)

// BaseURLForEnv maps the configured environment to the provider host.
// Anything that is not "production" selects the sandbox.
func BaseURLForEnv(env string) string {
	if env == "production" {
		return ProductionBaseURL
	}
	return SandboxBaseURL
}

type Client struct {
	baseURL string

	// Authentication and payment submission carry different ceilings,
	// so each gets its own http.Client.
	authClient    *http.Client
	paymentClient *http.Client
}

func NewClient(baseURL string, authTimeout, paymentTimeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		authClient: &http.Client{
			Timeout: authTimeout,
		},
		paymentClient: &http.Client{
			Timeout: paymentTimeout,
		},
	}
}

var _ application.DarajaClient = (*Client)(nil)

func (c *Client) PaymentURL() string {
	return c.baseURL + b2cURI
}

type authResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

// Authenticate performs the client-credentials grant with HTTP Basic
// auth. Daraja serialises expires_in as a string of seconds.
func (c *Client) Authenticate(ctx context.Context, consumerKey, consumerSecret string) (*application.AuthResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+authURI, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.SetBasicAuth(consumerKey, consumerSecret)

	resp, err := c.authClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, newDarajaError(resp)
	}

	var body authResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	seconds, err := body.ExpiresIn.Int64()
	if err != nil {
		return nil, fmt.Errorf("invalid expires_in %q: %w", body.ExpiresIn, err)
	}

	return &application.AuthResult{
		AccessToken: body.AccessToken,
		ExpiresIn:   time.Duration(seconds) * time.Second,
	}, nil
}

// SubmitB2C posts the payment request with Bearer auth and returns the
// provider's immediate acknowledgment.
func (c *Client) SubmitB2C(ctx context.Context, payload domain.B2CPayload, accessToken string) (*application.PaymentAck, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.PaymentURL(), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+accessToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.paymentClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, newDarajaError(resp)
	}

	var ack application.PaymentAck
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("error decoding json response: %w", err)
	}

	return &ack, nil
}

func newDarajaError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp darajaErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.ErrorMessage == "" {
		return &DarajaError{
			Message:    string(body),
			StatusCode: resp.StatusCode,
		}
	}

	return &DarajaError{
		RequestID:  errResp.RequestID,
		Code:       errResp.ErrorCode,
		Message:    errResp.ErrorMessage,
		StatusCode: resp.StatusCode,
	}
}
