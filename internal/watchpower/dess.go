package watchpower

import (
	"context"
	"crypto/sha1" //nolint:gosec // provider-mandated request signing, not cryptography
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hamzajavaid/solarmon/internal/metrics"
	domain "github.com/hamzajavaid/solarmon/pkg/types"
)

const (
	defaultBaseURL = "https://web.dessmonitor.com/public/"

	// Source and company key identify the WatchPower app family to the
	// Dess platform. Fixed values, not credentials.
	sourceApp  = "1"
	companyKey = "bnrl_frRFjEz8Mkn"
)

// DessClient implements Client against the Dess public API that backs
// the WatchPower app. Every request is signed with SHA-1 over a
// millisecond salt plus the session secret and token.
type DessClient struct {
	baseURL     string
	client      *http.Client
	rateLimiter *RateLimiter
	nowFunc     func() time.Time
}

// DessOption configures the DessClient.
type DessOption func(*DessClient)

// WithBaseURL overrides the default API endpoint.
func WithBaseURL(u string) DessOption {
	return func(c *DessClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) DessOption {
	return func(c *DessClient) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter that controls per-second and
// daily call limits. When set, every provider call goes through Wait()
// first.
func WithRateLimiter(r *RateLimiter) DessOption {
	return func(c *DessClient) {
		c.rateLimiter = r
	}
}

// WithNowFunc overrides the time function for testing (salts are
// derived from it).
func WithNowFunc(f func() time.Time) DessOption {
	return func(c *DessClient) {
		c.nowFunc = f
	}
}

// NewDessClient creates a new Dess API client.
func NewDessClient(opts ...DessOption) *DessClient {
	c := &DessClient{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the common provider response wrapper.
type envelope struct {
	Err  int             `json:"err"`
	Desc string          `json:"desc"`
	Dat  json.RawMessage `json:"dat"`
}

type loginDat struct {
	Token  string `json:"token"`
	Secret string `json:"secret"`
	Expire int64  `json:"expire"`
}

type recordsDat struct {
	Row []Row `json:"row"`
}

// Login implements Client.Login via the authSource action. The
// password is never sent; its SHA-1 digest participates in the request
// signature instead.
func (c *DessClient) Login(
	ctx context.Context,
	username, password string,
) (*Token, error) {
	action := "&action=authSource&usr=" + url.QueryEscape(username) +
		"&source=" + sourceApp +
		"&company-key=" + companyKey

	salt := strconv.FormatInt(c.nowFunc().UnixMilli(), 10)
	sign := sha1Hex(salt + sha1Hex(password) + action)

	metrics.ProviderLoginsTotal.Inc()

	body, err := c.do(ctx, "?sign="+sign+"&salt="+salt+action)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: parsing login response: %v", ErrProviderUnavailable, err)
	}

	if env.Err != 0 {
		return nil, &AuthFailedError{
			Username: username,
			Err:      &APIError{Code: env.Err, Desc: env.Desc},
		}
	}

	var dat loginDat
	if err := json.Unmarshal(env.Dat, &dat); err != nil {
		return nil, fmt.Errorf("%w: parsing login payload: %v", ErrProviderUnavailable, err)
	}

	return &Token{Token: dat.Token, Secret: dat.Secret, Expire: dat.Expire}, nil
}

// FetchDailyRecords implements Client.FetchDailyRecords via the
// queryDeviceDataOneDay action.
func (c *DessClient) FetchDailyRecords(
	ctx context.Context,
	tok *Token,
	day time.Time,
	dev domain.DeviceID,
) ([]Row, error) {
	action := fmt.Sprintf(
		"&action=queryDeviceDataOneDay&pn=%s&devcode=%d&devaddr=%d&sn=%s&date=%s&i18n=en_US",
		url.QueryEscape(dev.WifiPN),
		dev.DevCode,
		dev.DevAddr,
		url.QueryEscape(dev.SerialNumber),
		day.Format("2006-01-02"),
	)

	salt := strconv.FormatInt(c.nowFunc().UnixMilli(), 10)
	sign := sha1Hex(salt + tok.Secret + tok.Token + action)

	body, err := c.do(ctx, "?sign="+sign+"&salt="+salt+"&token="+tok.Token+action)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: parsing records response: %v", ErrProviderUnavailable, err)
	}

	if env.Err != 0 {
		return nil, &APIError{Code: env.Err, Desc: env.Desc}
	}

	var dat recordsDat
	if err := json.Unmarshal(env.Dat, &dat); err != nil {
		return nil, fmt.Errorf("%w: parsing records payload: %v", ErrProviderUnavailable, err)
	}

	return dat.Row, nil
}

func (c *DessClient) do(ctx context.Context, query string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(err, ErrDailyLimitReached) {
				metrics.ProviderDailyLimitHits.Inc()
			}
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	metrics.ProviderCallsTotal.Inc()

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+query,
		http.NoBody,
	)
	if err != nil {
		return nil, fmt.Errorf("creating provider request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response body: %v", ErrProviderUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"%w: status %d: %s",
			ErrProviderUnavailable,
			resp.StatusCode,
			string(body),
		)
	}

	return body, nil
}

func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s)) //nolint:gosec // provider-mandated signing
	return hex.EncodeToString(sum[:])
}
