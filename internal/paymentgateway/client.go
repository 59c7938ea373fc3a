package paymentgateway

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	gatewaytypes "github.com/frahmantamala/jobly/internal/core/datamodel/paymentgateway"
)

const (
	initiatePath   = "/gwprocess/v4/api.php"
	validationPath = "/validator/api/validationserverAPI.php"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

type Config struct {
	StoreID       string
	StorePassword string
	BaseURL       string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
	Timeout       time.Duration
}

// Client talks to the SSLCommerz session and order validation APIs.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Initiate opens a hosted checkout session. A refusal from the gateway comes
// back as *RejectedError; anything else is a transport problem.
func (c *Client) Initiate(ctx context.Context, req *gatewaytypes.InitiateRequest) (*gatewaytypes.InitiateResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	form := url.Values{}
	form.Set("store_id", c.config.StoreID)
	form.Set("store_passwd", c.config.StorePassword)
	form.Set("total_amount", req.Amount.StringFixed(2))
	form.Set("currency", req.Currency)
	form.Set("tran_id", req.TransactionID)
	form.Set("success_url", c.config.SuccessURL)
	form.Set("fail_url", c.config.FailURL)
	form.Set("cancel_url", c.config.CancelURL)
	form.Set("ipn_url", c.config.IPNURL)
	form.Set("cus_name", req.Customer.Name)
	form.Set("cus_email", req.Customer.Email)
	form.Set("cus_phone", req.Customer.Phone)
	form.Set("cus_add1", req.Customer.Address)
	form.Set("cus_city", req.Customer.City)
	form.Set("cus_country", req.Customer.Country)
	form.Set("shipping_method", "NO")
	form.Set("product_name", req.ProductName)
	form.Set("product_category", req.ProductCategory)
	form.Set("product_profile", "non-physical-goods")
	form.Set("num_of_item", "1")

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+initiatePath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var body gatewaytypes.InitiateResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode initiate response: %w", err)
	}

	if body.Status != gatewaytypes.InitStatusSuccess || body.GatewayPageURL == "" {
		reason := body.FailedReason
		if reason == "" {
			reason = "Payment initiation was rejected"
		}
		c.logger.Warn("gateway rejected initiation", "tran_id", req.TransactionID, "status", body.Status, "reason", reason)
		return nil, &gatewaytypes.RejectedError{Reason: reason, Raw: raw}
	}

	c.logger.Info("gateway session created", "tran_id", req.TransactionID, "session_key", body.SessionKey)

	return &gatewaytypes.InitiateResult{
		RedirectURL: body.GatewayPageURL,
		StoreID:     c.config.StoreID,
		SessionKey:  body.SessionKey,
		Raw:         raw,
	}, nil
}

// Validate asks the gateway to confirm a callback by its validation id.
func (c *Client) Validate(ctx context.Context, tranID, valID string) (*gatewaytypes.ValidationResult, error) {
	if valID == "" {
		return nil, fmt.Errorf("validation error: val_id is required")
	}

	q := url.Values{}
	q.Set("val_id", valID)
	q.Set("store_id", c.config.StoreID)
	q.Set("store_passwd", c.config.StorePassword)
	q.Set("format", "json")

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+validationPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	raw, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	var body gatewaytypes.ValidationResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}

	result := &gatewaytypes.ValidationResult{
		Valid:    body.Status == gatewaytypes.ValidationValid || body.Status == gatewaytypes.ValidationValidated,
		Status:   body.Status,
		TranID:   body.TranID,
		Currency: body.Currency,
		Raw:      raw,
	}
	if body.Amount != "" {
		amount, err := decimal.NewFromString(body.Amount)
		if err != nil {
			c.logger.Warn("gateway returned unparseable amount", "tran_id", tranID, "amount", body.Amount)
			result.Valid = false
		} else {
			result.Amount = amount
		}
	}

	c.logger.Info("gateway validation finished", "tran_id", tranID, "status", body.Status, "valid", result.Valid)
	return result, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}
	return raw, nil
}
