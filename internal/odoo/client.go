package odoo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Veraticus/overtime-sync/internal/common"
	"github.com/Veraticus/overtime-sync/internal/model"
	"github.com/Veraticus/overtime-sync/internal/service"
)

var _ service.ReportSource = (*Client)(nil)

var csrfPattern = regexp.MustCompile(`csrf_token\s*:\s*"([^"]+)"`)

// Client is a session-holding Odoo web client. It is not safe for
// concurrent use; the cookie jar carries one login.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     Config
	requestID  int
}

// NewClient creates a client with its own cookie jar.
func NewClient(config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Jar: jar,
		},
	}, nil
}

// Authenticate logs in and returns the session uid.
func (c *Client) Authenticate(ctx context.Context) (model.Session, error) {
	params := map[string]any{
		"db":       c.config.Database,
		"login":    c.config.Username,
		"password": c.config.Password,
	}

	var result struct {
		UID json.RawMessage `json:"uid"`
	}
	if err := c.call(ctx, "/web/session/authenticate", params, c.config.RPCTimeout, &result); err != nil {
		return model.Session{}, classifyRPC(err, common.ErrAuth, "authenticate")
	}

	// A failed login answers uid=false rather than an error object.
	var uid int64
	if err := json.Unmarshal(result.UID, &uid); err != nil || uid <= 0 {
		return model.Session{}, common.NewStepError(common.ErrAuth, "authenticate", "response has no uid")
	}

	c.logger.Info("logged in", "uid", uid, "db", c.config.Database)
	return model.Session{UID: uid}, nil
}

// FetchCSRFToken loads the web client page and extracts the anti-forgery
// token embedded in its bootstrap script.
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RPCTimeout)
	defer cancel()

	url := c.config.endpoint("/web")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &common.HTTPError{URL: url, StatusCode: resp.StatusCode, Body: excerpt(body)}
	}

	token := extractCSRFToken(body)
	if token == "" {
		return "", common.NewStepError(common.ErrProtocol, "csrf", "csrf_token not found in /web")
	}

	c.logger.Debug("fetched csrf token")
	return token, nil
}

func extractCSRFToken(page []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err == nil {
		var token string
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if m := csrfPattern.FindStringSubmatch(sel.Text()); m != nil {
				token = m[1]
				return false
			}
			return true
		})
		if token != "" {
			return token
		}
	}

	// Some themes inline the session info outside a script element.
	if m := csrfPattern.FindSubmatch(page); m != nil {
		return string(m[1])
	}
	return ""
}

// userContext is the context dict the web client sends with each call.
func (c *Client) userContext(session model.Session, req model.ReportRequest) map[string]any {
	return map[string]any{
		"lang":                c.config.Language,
		"tz":                  c.config.Timezone,
		"uid":                 session.UID,
		"allowed_company_ids": []int64{req.CompanyID},
		"default_is_company":  false,
	}
}

func excerpt(body []byte) string {
	const limit = 400
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
