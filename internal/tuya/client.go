package tuya

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/emick/smartplug/internal/infrastructure/config"
	"github.com/emick/smartplug/internal/plug"
)

// Cloud endpoints per Tuya region.
var regionEndpoints = map[string]string{
	"us": "https://openapi.tuyaus.com",
	"eu": "https://openapi.tuyaeu.com",
	"cn": "https://openapi.tuyacn.com",
	"in": "https://openapi.tuyain.com",
}

// tokenSafetyMargin is subtracted from the token lifetime so a token is
// refreshed before the cloud actually expires it.
const tokenSafetyMargin = 60 * time.Second

// Client talks to the Tuya cloud API for a single smart plug.
//
// It handles token acquisition and the v2 request signing scheme. The access
// token is cached for its lifetime, which spares the second round-trip when
// one invocation issues several calls. No retries: a failed call surfaces as
// ErrFetchFailed and the next cron invocation is the retry.
type Client struct {
	http     *resty.Client
	deviceID string
	clientID string
	secret   string

	token        string
	tokenExpires time.Time
}

// apiResponse is the envelope every Tuya cloud response uses.
type apiResponse struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Result  json.RawMessage `json:"result"`
}

// tokenResult is the result payload of the token grant call.
type tokenResult struct {
	AccessToken string `json:"access_token"`
	ExpireTime  int    `json:"expire_time"`
}

// datapoint is one code/value entry in a device status result.
type datapoint struct {
	Code  string `json:"code"`
	Value any    `json:"value"`
}

// New creates a cloud client from the device configuration.
//
// Parameters:
//   - cfg: Device identity, region, credentials and request timeout
//
// Returns:
//   - *Client: Ready client; no network traffic happens until a fetch
//   - error: ErrMissingCredentials if ID, key or secret is absent
func New(cfg config.DeviceConfig) (*Client, error) {
	endpoint, ok := regionEndpoints[strings.ToLower(cfg.Region)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown region %q", ErrFetchFailed, cfg.Region)
	}
	return newClient(cfg, endpoint)
}

// NewWithEndpoint creates a client against an explicit endpoint URL.
// Used by tests to point at a local server.
func NewWithEndpoint(cfg config.DeviceConfig, endpoint string) (*Client, error) {
	return newClient(cfg, endpoint)
}

func newClient(cfg config.DeviceConfig, endpoint string) (*Client, error) {
	if cfg.ID == "" || cfg.Key == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("%w: device id, key and secret are required", ErrMissingCredentials)
	}

	http := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(time.Duration(cfg.FetchTimeout) * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:     http,
		deviceID: cfg.ID,
		clientID: cfg.Key,
		secret:   cfg.Secret,
	}, nil
}

// FetchSnapshot retrieves and parses the plug's current status.
//
// Parameters:
//   - ctx: Context for cancellation; the configured fetch timeout also
//     bounds each HTTP call
//
// Returns:
//   - plug.Snapshot: Normalised telemetry
//   - error: ErrFetchFailed (wrapped) on any transport or API failure,
//     plug.ErrInvalidSnapshot if the payload doesn't parse
func (c *Client) FetchSnapshot(ctx context.Context) (plug.Snapshot, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return plug.Snapshot{}, err
	}

	path := fmt.Sprintf("/v1.0/devices/%s/status", c.deviceID)
	result, err := c.get(ctx, path, token)
	if err != nil {
		return plug.Snapshot{}, err
	}

	var dps []datapoint
	if err := json.Unmarshal(result, &dps); err != nil {
		return plug.Snapshot{}, fmt.Errorf("%w: decoding status result: %w", ErrFetchFailed, err)
	}

	values := make(map[string]any, len(dps))
	for _, dp := range dps {
		values[dp.Code] = dp.Value
	}

	return plug.ParseSnapshot(values)
}

// accessToken returns a valid access token, fetching one if needed.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if c.token != "" && time.Now().Before(c.tokenExpires) {
		return c.token, nil
	}

	result, err := c.get(ctx, "/v1.0/token?grant_type=1", "")
	if err != nil {
		return "", err
	}

	var tok tokenResult
	if err := json.Unmarshal(result, &tok); err != nil {
		return "", fmt.Errorf("%w: decoding token result: %w", ErrFetchFailed, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrFetchFailed)
	}

	c.token = tok.AccessToken
	c.tokenExpires = time.Now().
		Add(time.Duration(tok.ExpireTime) * time.Second).
		Add(-tokenSafetyMargin)

	return c.token, nil
}

// get performs one signed GET and unwraps the response envelope.
func (c *Client) get(ctx context.Context, pathWithQuery, accessToken string) (json.RawMessage, error) {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)
	nonce := uuid.NewString()
	canonical := stringToSign("GET", "", pathWithQuery)
	sign := signature(c.clientID, c.secret, accessToken, timestamp, nonce, canonical)

	req := c.http.R().
		SetContext(ctx).
		SetHeader("client_id", c.clientID).
		SetHeader("sign", sign).
		SetHeader("t", timestamp).
		SetHeader("sign_method", signMethod).
		SetHeader("nonce", nonce)
	if accessToken != "" {
		req.SetHeader("access_token", accessToken)
	}

	resp, err := req.Get(pathWithQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode())
	}

	var envelope apiResponse
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrFetchFailed, err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("%w: API error %d: %s", ErrFetchFailed, envelope.Code, envelope.Msg)
	}

	return envelope.Result, nil
}
