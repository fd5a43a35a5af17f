package wecom

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/lewisedginton/support_relay/pkg/logger"
)

const defaultAPIBase = "https://qyapi.weixin.qq.com"

// refreshMargin is subtracted from the advertised token lifetime so a token
// is refreshed before the platform actually rejects it.
const refreshMargin = 5 * time.Minute

// Client sends application messages to enterprise members. The access token
// is cached process-wide and refreshed lazily; the refresh path is guarded
// by a mutex so concurrent callers do not stampede the token endpoint.
type Client struct {
	corpID     string
	corpSecret string
	agentID    int
	apiBase    string
	httpClient *http.Client
	log        logger.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithAPIBase overrides the API base URL, used in tests.
func WithAPIBase(base string) ClientOption {
	return func(c *Client) { c.apiBase = strings.TrimRight(base, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates an outbound WeCom client.
func NewClient(corpID, corpSecret string, agentID int, log logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		corpID:     corpID,
		corpSecret: corpSecret,
		agentID:    agentID,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	ErrCode     int    `json:"errcode"`
	ErrMsg      string `json:"errmsg"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type sendResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// token returns a valid access token, refreshing it if missing or within
// the safety margin of expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	endpoint := fmt.Sprintf("%s/cgi-bin/gettoken?corpid=%s&corpsecret=%s",
		c.apiBase, url.QueryEscape(c.corpID), url.QueryEscape(c.corpSecret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.ErrCode != 0 {
		return "", fmt.Errorf("token endpoint returned error %d: %s", tr.ErrCode, tr.ErrMsg)
	}

	c.accessToken = tr.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tr.ExpiresIn)*time.Second - refreshMargin)
	c.log.Debug("Refreshed WeCom access token",
		logger.TimeField("expires_at", c.expiresAt),
	)
	return c.accessToken, nil
}

// SendText delivers a plain text application message to a single member.
func (c *Client) SendText(ctx context.Context, memberID, text string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"touser":  memberID,
		"msgtype": "text",
		"agentid": c.agentID,
		"text":    map[string]string{"content": text},
	})
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf("%s/cgi-bin/message/send?access_token=%s", c.apiBase, url.QueryEscape(token))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	var sr sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("failed to decode send response: %w", err)
	}
	if sr.ErrCode != 0 {
		return fmt.Errorf("message send returned error %d: %s", sr.ErrCode, sr.ErrMsg)
	}
	return nil
}
