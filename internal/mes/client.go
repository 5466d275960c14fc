package mes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"KCMS-gateway/internal/platform/apierr"
	"KCMS-gateway/internal/platform/logging"
	"KCMS-gateway/internal/platform/metrics"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultExportTimeout = 30 * time.Second

	maxJSONBody   = 8 << 20
	maxExportBody = 64 << 20
)

type Config struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	ExportTimeout time.Duration
}

// Client: MES REST API の薄いクライアント。リトライはしない
type Client struct {
	base          string
	token         string
	http          *http.Client
	timeout       time.Duration
	exportTimeout time.Duration
}

func NewClient(cfg Config) *Client {
	c := &Client{
		base:          strings.TrimRight(cfg.BaseURL, "/"),
		token:         cfg.Token,
		http:          &http.Client{},
		timeout:       cfg.Timeout,
		exportTimeout: cfg.ExportTimeout,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.exportTimeout <= 0 {
		c.exportTimeout = DefaultExportTimeout
	}
	return c
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), rd)
	if err != nil {
		return nil, err
	}
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// transportError: 通信失敗は例外メッセージを埋め込んだ 500 扱い
func transportError(err error) error {
	return apierr.ErrUpstream("upstream request failed: " + err.Error())
}

// Call: JSON API を呼び、封筒を返す。封筒が失敗を示す場合はエラーも返す
func (c *Client) Call(ctx context.Context, endpoint, method, path string, query url.Values, body any) (*Envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return nil, apierr.ErrInternal(err.Error())
	}

	log := logging.FromContext(ctx).WithField("endpoint", endpoint)
	res, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transport_error").Inc()
		log.WithError(err).Warn("upstream call failed")
		return nil, transportError(err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxJSONBody))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, transportError(err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "bad_response").Inc()
		log.WithField("status", res.StatusCode).Warn("upstream returned non-json body")
		return nil, apierr.ErrUpstream(fmt.Sprintf("upstream returned HTTP %d: %s", res.StatusCode, truncate(raw, 200)))
	}
	if res.StatusCode >= 400 && (env.Code == 0 || env.Code == http.StatusOK) {
		env.Code = res.StatusCode
		env.Success = false
	}
	if !env.OK() {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		log.WithFields(map[string]any{"code": env.Code, "msg": env.Msg}).Info("upstream returned error envelope")
		return &env, env.AsError()
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return &env, nil
}

// Download: エクスポート系。上流のバイト列をそのまま返す
func (c *Client) Download(ctx context.Context, endpoint, path string, query url.Values) ([]byte, string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.exportTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, "", apierr.ErrInternal(err.Error())
	}
	req.Header.Set("Accept", "*/*")

	res, err := c.http.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, "", transportError(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxExportBody))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, "", transportError(err)
	}

	ct := res.Header.Get("Content-Type")
	// JSON が返ってきたらエラー封筒
	if mt, _, _ := mime.ParseMediaType(ct); mt == "application/json" {
		var env Envelope
		if err := json.Unmarshal(body, &env); err == nil && (!env.OK() || res.StatusCode >= 400) {
			if env.Code == 0 || env.Code == http.StatusOK {
				env.Code = res.StatusCode
			}
			metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
			return nil, "", env.AsError()
		}
	}
	if res.StatusCode >= 400 {
		metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return nil, "", apierr.ErrUpstream(fmt.Sprintf("upstream export returned HTTP %d", res.StatusCode))
	}
	if ct == "" {
		ct = "application/octet-stream"
	}
	metrics.UpstreamRequests.WithLabelValues(endpoint, "ok").Inc()
	return body, ct, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
