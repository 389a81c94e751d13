package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/courierwatch/courier-tracker/internal/config"
	apperrors "github.com/courierwatch/courier-tracker/internal/errors"
)

const (
	authTokenCookie = "auth_token"
	spidCookie      = "spid"
)

// Credentials are the session cookies captured by the scraper after login.
type Credentials struct {
	AuthToken string
	SPID      string
}

// Token returns the bearer value, preferring auth_token over spid.
func (c Credentials) Token() (string, error) {
	if token := strings.TrimSpace(c.AuthToken); token != "" {
		return token, nil
	}
	if spid := strings.TrimSpace(c.SPID); spid != "" {
		return spid, nil
	}
	return "", apperrors.MissingCredential("auth_token or spid cookie")
}

func (c Credentials) cookies() []*http.Cookie {
	var cookies []*http.Cookie
	if c.AuthToken != "" {
		cookies = append(cookies, &http.Cookie{Name: authTokenCookie, Value: c.AuthToken})
	}
	if c.SPID != "" {
		cookies = append(cookies, &http.Cookie{Name: spidCookie, Value: c.SPID})
	}
	return cookies
}

type Options struct {
	SummaryURL   string
	DashboardURL string
	OriginURL    string
	UserAgent    string
	Credentials  Credentials
	Timeout      time.Duration
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SummaryURL:   cfg.DashboardSummaryURL,
		DashboardURL: cfg.DashboardURL,
		OriginURL:    cfg.OriginURL,
		UserAgent:    cfg.UserAgent,
		Credentials: Credentials{
			AuthToken: cfg.DashboardAuthToken,
			SPID:      cfg.DashboardSPID,
		},
		Timeout: config.DashboardRequestTimeout,
	}
}

// Client talks to the warehouse dashboard API with the scraper's session.
type Client struct {
	http       *resty.Client
	summaryURL string
}

// NewClient fails with MISSING_CREDENTIAL when neither session cookie is set.
func NewClient(opts Options) (*Client, error) {
	token, err := opts.Credentials.Token()
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = config.DashboardRequestTimeout
	}

	client := resty.New().
		SetTimeout(timeout).
		SetAuthToken(token).
		SetHeader("Accept", "application/json").
		SetCookies(opts.Credentials.cookies())
	if opts.OriginURL != "" {
		client.SetHeader("Origin", opts.OriginURL)
	}
	if opts.DashboardURL != "" {
		client.SetHeader("Referer", opts.DashboardURL)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{http: client, summaryURL: opts.SummaryURL}, nil
}

// FetchSummary requests the warehouse summary and returns the HTTP status.
// Non-2xx answers are not errors; only transport failures are.
func (c *Client) FetchSummary(ctx context.Context) (int, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(c.summaryURL)
	if err != nil {
		return 0, apperrors.External("dashboard summary", err)
	}

	if resp.StatusCode() == http.StatusOK {
		log.Debug().RawJSON("summary", jsonOrNull(resp.Body())).Msg("dashboard summary received")
	} else {
		log.Warn().Int("status", resp.StatusCode()).Msg("dashboard summary returned non-OK status")
	}
	return resp.StatusCode(), nil
}

func jsonOrNull(body []byte) []byte {
	if !json.Valid(body) {
		return []byte("null")
	}
	return body
}
