// Package momo is a client for the MTN Mobile Money collection API. It
// implements the services.SettlementGateway port: request-to-pay, status
// queries and account holder validation, with a cached bearer token.
package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"
	"time"

	portssvc "github.com/pesavault/pesavault/internal/core/ports/services"
	"github.com/pesavault/pesavault/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// tokenExpiryMargin is how long before the real expiry a token is considered
// stale, so a token never dies mid-request.
const tokenExpiryMargin = 60 * time.Second

// msisdnPattern accepts E.164-ish numbers: 8 to 15 digits, optional plus.
var msisdnPattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// ValidMSISDN reports whether s looks like a subscriber number the provider
// will accept. The binding layer registers this as the "msisdn" validator.
func ValidMSISDN(s string) bool {
	return msisdnPattern.MatchString(s)
}

// Config carries the provider credentials and endpoints.
type Config struct {
	BaseURL           string
	PrimaryKey        string // Ocp-Apim-Subscription-Key
	TargetEnvironment string // "sandbox" or the production environment name
	CallbackURL       string
	UserID            string // API user, basic auth username for the token call
	APIKey            string // basic auth password for the token call
	Timeout           time.Duration
}

// Client talks to the MTN MoMo collection API.
type Client struct {
	cfg  Config
	http *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient creates a gateway client. The zero Timeout defaults to 10s.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Ensure Client implements the portssvc.SettlementGateway interface
var _ portssvc.SettlementGateway = (*Client)(nil)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type requestToPayBody struct {
	Amount       string     `json:"amount"`
	Currency     string     `json:"currency"`
	ExternalID   string     `json:"externalId"`
	Payer        payerParty `json:"payer"`
	PayerMessage string     `json:"payerMessage,omitempty"`
	PayeeNote    string     `json:"payeeNote,omitempty"`
}

type payerParty struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

type requestToPayStatus struct {
	Status string `json:"status"`
	Reason struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"reason"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// token returns a valid bearer token, refreshing it when the cached one is
// missing or within the expiry margin. Callers serialize on the mutex so the
// provider sees at most one token request at a time.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-tokenExpiryMargin)) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/collection/token/", nil)
	if err != nil {
		return "", fmt.Errorf("building token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.UserID, c.cfg.APIKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.PrimaryKey)

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestDuration.With(prometheus.Labels{"operation": "token"}).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", newRejectionError(resp)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response carried no access token")
	}

	c.accessToken = body.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(body.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

// newRejectionError turns a non-success provider response into a typed
// rejection the service layer can distinguish from transport failures.
func newRejectionError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	if body.Code == "" {
		body.Code = resp.Status
	}
	return &portssvc.GatewayRejectionError{
		StatusCode: resp.StatusCode,
		Code:       body.Code,
		Message:    body.Message,
	}
}

// authedRequest builds a request with the bearer token and standard headers.
func (c *Client) authedRequest(ctx context.Context, method, path string, payload io.Reader) (*http.Request, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.PrimaryKey)
	req.Header.Set("X-Target-Environment", c.cfg.TargetEnvironment)
	return req, nil
}

// RequestPayment submits a request-to-pay under the given correlation id.
// Submitting the same referenceID again is idempotent at the provider, which
// is what makes retrying a timed-out initiation safe.
func (c *Client) RequestPayment(ctx context.Context, referenceID string, payment portssvc.GatewayPaymentRequest) error {
	if !ValidMSISDN(payment.PayerMSISDN) {
		return &portssvc.GatewayRejectionError{
			StatusCode: http.StatusBadRequest,
			Code:       "INVALID_MSISDN",
			Message:    fmt.Sprintf("payer msisdn %q is not a valid subscriber number", payment.PayerMSISDN),
		}
	}

	body := requestToPayBody{
		Amount:     payment.Amount.String(),
		Currency:   payment.CurrencyCode,
		ExternalID: referenceID,
		Payer: payerParty{
			PartyIDType: "MSISDN",
			PartyID:     payment.PayerMSISDN,
		},
		PayerMessage: payment.Note,
		PayeeNote:    payment.Note,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request-to-pay body: %w", err)
	}

	req, err := c.authedRequest(ctx, http.MethodPost, "/collection/v1_0/requesttopay", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Reference-Id", referenceID)
	if c.cfg.CallbackURL != "" {
		req.Header.Set("X-Callback-Url", c.cfg.CallbackURL)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestDuration.With(prometheus.Labels{"operation": "request_to_pay"}).Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("submitting request-to-pay %s: %w", referenceID, err)
	}
	defer resp.Body.Close()

	// The provider answers 202 Accepted; the outcome arrives via callback or poll.
	if resp.StatusCode != http.StatusAccepted {
		return newRejectionError(resp)
	}
	return nil
}

// GetStatus queries the provider for the current state of a request-to-pay.
func (c *Client) GetStatus(ctx context.Context, referenceID string) (*portssvc.GatewayStatusResult, error) {
	req, err := c.authedRequest(ctx, http.MethodGet, "/collection/v1_0/requesttopay/"+referenceID, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestDuration.With(prometheus.Labels{"operation": "get_status"}).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("querying status of %s: %w", referenceID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, newRejectionError(resp)
	}

	var body requestToPayStatus
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding status of %s: %w", referenceID, err)
	}

	result := &portssvc.GatewayStatusResult{ReasonCode: body.Reason.Code}
	switch body.Status {
	case "SUCCESSFUL":
		result.Status = portssvc.GatewayStatusSuccessful
	case "FAILED":
		result.Status = portssvc.GatewayStatusFailed
	default:
		result.Status = portssvc.GatewayStatusPending
	}
	return result, nil
}

// ValidateAccountHolder checks whether the msisdn belongs to an active
// subscriber.
func (c *Client) ValidateAccountHolder(ctx context.Context, msisdn string) (bool, error) {
	if !ValidMSISDN(msisdn) {
		return false, nil
	}

	req, err := c.authedRequest(ctx, http.MethodGet, "/collection/v1_0/accountholder/msisdn/"+msisdn+"/active", nil)
	if err != nil {
		return false, err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.GatewayRequestDuration.With(prometheus.Labels{"operation": "validate_account_holder"}).Observe(time.Since(start).Seconds())
	if err != nil {
		return false, fmt.Errorf("validating account holder %s: %w", msisdn, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, newRejectionError(resp)
	}

	var body struct {
		Result bool `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decoding account holder response for %s: %w", msisdn, err)
	}
	return body.Result, nil
}
