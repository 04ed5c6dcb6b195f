package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	apperr "minestats/pkg/error"
	"minestats/pkg/logger"
	"minestats/pkg/version"
)

// DefaultEndpoint GitHub GraphQL API 地址
const DefaultEndpoint = "https://api.github.com/graphql"

// maxResponseBytes 单个响应体的读取上限
const maxResponseBytes = 8 << 20

// Config GitHub 客户端配置
type Config struct {
	Endpoint           string        `mapstructure:"endpoint"`            // GraphQL 地址
	Token              string        `mapstructure:"token"`               // Bearer token
	UserAgent          string        `mapstructure:"user_agent"`          // 为空时使用 version.UserAgent()
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`     // 单次 HTTP 请求超时
	AggregationTimeout time.Duration `mapstructure:"aggregation_timeout"` // 一次完整聚合（含全部分页）的截止时间
	Breaker            BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig 熔断器配置
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`       // 是否启用熔断器
	MaxRequests uint32        `mapstructure:"max_requests"`  // 半开状态下的最大请求数
	Interval    time.Duration `mapstructure:"interval"`      // 统计窗口时间
	Timeout     time.Duration `mapstructure:"timeout"`       // 熔断器打开后的超时时间
	ReadyToTrip uint32        `mapstructure:"ready_to_trip"` // 触发熔断的连续失败次数
}

// DefaultConfig 默认客户端配置（不含 token）
func DefaultConfig() Config {
	return Config{
		Endpoint:           DefaultEndpoint,
		RequestTimeout:     15 * time.Second,
		AggregationTimeout: 60 * time.Second,
		Breaker: BreakerConfig{
			Enabled:     true,
			MaxRequests: 1,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: 5,
		},
	}
}

// Client GitHub GraphQL 客户端。
// 每个请求只尝试一次，不做重试；连续失败时由熔断器快速失败。
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	userAgent  string
	aggTimeout time.Duration
	cb         *gobreaker.CircuitBreaker
	now        func() time.Time
	log        *logrus.Entry
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.Endpoint == "" {
		cfg.Endpoint = def.Endpoint
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.AggregationTimeout <= 0 {
		cfg.AggregationTimeout = def.AggregationTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = version.UserAgent()
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: cfg.RequestTimeout,
		},
		endpoint:   cfg.Endpoint,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		aggTimeout: cfg.AggregationTimeout,
		now:        func() time.Time { return time.Now().UTC() },
		log:        logger.WithComponent("github"),
	}
	if cfg.Breaker.Enabled {
		c.cb = newBreaker(cfg.Breaker, c.log)
	}
	return c
}

func newBreaker(cfg BreakerConfig, log *logrus.Entry) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "github-graphql",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ReadyToTrip
		},
		// 只有上游故障计入失败，用户不存在之类的业务错误不触发熔断
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("circuit breaker state changed")
		},
	})
}

// BreakerState 熔断器状态，未启用时返回 "disabled"
func (c *Client) BreakerState() string {
	if c.cb == nil {
		return "disabled"
	}
	return c.cb.State().String()
}

type graphqlRequest struct {
	OperationName string      `json:"operationName"`
	Query         string      `json:"query"`
	Variables     interface{} `json:"variables"`
}

type graphqlError struct {
	Type    string        `json:"type"`
	Message string        `json:"message"`
	Path    []interface{} `json:"path"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

// query 发送一个命名 GraphQL 操作并把 data 解码到 out
func (c *Client) query(ctx context.Context, op, document string, variables interface{}, out interface{}) error {
	body, err := json.Marshal(graphqlRequest{OperationName: op, Query: document, Variables: variables})
	if err != nil {
		return apperr.WrapError(apperr.ErrInternal, "encode "+op+" request", err)
	}

	if c.cb == nil {
		return c.post(ctx, op, body, out)
	}

	_, err = c.cb.Execute(func() (interface{}, error) {
		return nil, c.post(ctx, op, body, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperr.WrapError(ErrUpstreamUnavailable, "github circuit breaker rejected "+op, err)
	}
	return err
}

func (c *Client) post(ctx context.Context, op string, body []byte, out interface{}) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return apperr.WrapError(apperr.ErrInternal, "create "+op+" request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransportError(ctx, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return classifyTransportError(ctx, op, err)
	}

	c.log.WithFields(logrus.Fields{
		"operation": op,
		"status":    resp.StatusCode,
		"bytes":     len(raw),
		"elapsed":   time.Since(start).String(),
	}).Debug("graphql request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apperr.NewError(ErrUpstreamUnavailable, fmt.Sprintf("%s: HTTP status %d", op, resp.StatusCode)).
			WithContext("status", resp.StatusCode)
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return newMalformed("decode "+op+" response", err)
	}
	if len(envelope.Errors) > 0 {
		for _, e := range envelope.Errors {
			if e.Type == "NOT_FOUND" {
				return apperr.NewError(ErrUserNotFound, e.Message)
			}
		}
		if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
			return newMalformed(fmt.Sprintf("%s returned errors: %s", op, joinMessages(envelope.Errors)), nil)
		}
		c.log.WithField("operation", op).Warnf("graphql partial errors: %s", joinMessages(envelope.Errors))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return newMalformed(op+" response has no data", nil)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return newMalformed("decode "+op+" data", err)
	}
	return nil
}

func joinMessages(errs []graphqlError) string {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// withDeadline 为一次完整聚合施加截止时间
func (c *Client) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.aggTimeout)
}
