package kairos

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kairos-service/internal/config"
	"github.com/kairos-service/internal/pkg/errors"
)

const breakerName = "kairos-api"

// Client - общий HTTP клиент Kairos API. Не хранит токены:
// авторизованные вызовы идут через Session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker[*response]
	limiter    *rate.Limiter
	logger     *zap.Logger
}

type request struct {
	method   string
	path     string
	endpoint string
	query    url.Values
	form     url.Values
	body     interface{}
	token    string
}

type response struct {
	status int
	body   []byte
}

// serverError - ответ 5xx, учитывается circuit breaker как сбой
type serverError struct {
	status int
	body   string
}

func (e *serverError) Error() string {
	return fmt.Sprintf("kairos API error: status %d, body: %s", e.status, e.body)
}

// NewClient создает клиент Kairos API
func NewClient(cfg *config.KairosConfig, breakerCfg *config.BreakerConfig, logger *zap.Logger) *Client {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	threshold := breakerCfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}

	breakerState.WithLabelValues(breakerName).Set(0)

	cb := gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: breakerCfg.MaxRequests,
		Interval:    breakerCfg.Interval,
		Timeout:     breakerCfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		breaker:    cb,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     logger,
	}
}

// do выполняет запрос через limiter и circuit breaker.
// Ошибка возвращается только для сбоев транспорта и 5xx; прочие статусы разбирает вызывающий.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	start := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(req.endpoint).Observe(time.Since(start).Seconds())
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		apiRequests.WithLabelValues(req.endpoint, "rate_limited").Inc()
		return nil, errors.ErrNetwork.Wrap(fmt.Errorf("rate limiter: %w", err))
	}

	resp, err := c.breaker.Execute(func() (*response, error) {
		return c.send(ctx, req)
	})
	if err != nil {
		var srvErr *serverError
		switch {
		case stderrors.Is(err, gobreaker.ErrOpenState), stderrors.Is(err, gobreaker.ErrTooManyRequests):
			apiRequests.WithLabelValues(req.endpoint, "rejected").Inc()
		case stderrors.As(err, &srvErr):
			apiRequests.WithLabelValues(req.endpoint, "server_error").Inc()
			return nil, errors.ErrNetwork.Wrap(err).WithDetails(map[string]interface{}{
				"status": srvErr.status,
			})
		default:
			apiRequests.WithLabelValues(req.endpoint, "transport_error").Inc()
		}
		c.logger.Error("Kairos API request failed",
			zap.String("endpoint", req.endpoint),
			zap.String("method", req.method),
			zap.Error(err))
		return nil, errors.ErrNetwork.Wrap(err)
	}

	apiRequests.WithLabelValues(req.endpoint, outcome(resp.status)).Inc()
	return resp, nil
}

func (c *Client) send(ctx context.Context, req request) (*response, error) {
	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.body != nil:
		payload, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	c.logger.Debug("Calling Kairos API",
		zap.String("method", req.method),
		zap.String("path", req.path))

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode >= http.StatusInternalServerError {
		return nil, &serverError{status: httpResp.StatusCode, body: truncate(string(data), 256)}
	}

	return &response{status: httpResp.StatusCode, body: data}, nil
}

// decode переводит статус ответа в AppError и разбирает тело в out
func (c *Client) decode(resp *response, req request, out interface{}) error {
	switch {
	case resp.status == http.StatusUnauthorized:
		return errors.ErrAuthExpired
	case resp.status == http.StatusNotFound:
		return errors.ErrNotFound.WithMessage(fmt.Sprintf("%s: not found", req.endpoint))
	case resp.status == http.StatusBadRequest || resp.status == http.StatusUnprocessableEntity:
		return errors.ErrValidation.WithMessage(detailMessage(resp.body, "Request rejected by Kairos API"))
	case resp.status == http.StatusForbidden:
		return errors.ErrInvalidRequest.WithMessage(detailMessage(resp.body, "Operation not permitted"))
	case resp.status >= 300:
		return errors.ErrNetwork.WithDetails(map[string]interface{}{"status": resp.status})
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		c.logger.Error("Failed to decode Kairos response",
			zap.String("endpoint", req.endpoint),
			zap.Error(err))
		return errors.ErrNetwork.Wrap(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// call - запрос без авторизации (логин, refresh, регистрация)
func (c *Client) call(ctx context.Context, req request, out interface{}) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return c.decode(resp, req, out)
}

func detailMessage(body []byte, fallback string) string {
	var payload struct {
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fallback
	}
	switch d := payload.Detail.(type) {
	case string:
		if d != "" {
			return d
		}
	case []interface{}:
		if len(d) > 0 {
			if item, ok := d[0].(map[string]interface{}); ok {
				if msg, ok := item["msg"].(string); ok {
					return msg
				}
			}
		}
	}
	return fallback
}

func outcome(status int) string {
	switch {
	case status < 300:
		return "success"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "client_error"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
