package leaguepedia

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v5"
	"github.com/riskibarqy/esports-fantasy/internal/platform/logging"
	"github.com/riskibarqy/esports-fantasy/internal/platform/resilience"
	"github.com/riskibarqy/esports-fantasy/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL        = "https://lol.fandom.com/api.php"
	defaultUserAgent      = "esports-fantasy-ingest/1.0"
	defaultMinInterval    = time.Second
	defaultTimeout        = 30 * time.Second
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = time.Second
	maxResponseBytes      = 8 << 20
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Username       string
	Password       string
	MinInterval    time.Duration
	Timeout        time.Duration
	MaxAttempts    int
	RetryBaseDelay time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.BreakerConfig
}

// TableSpec describes one cargoquery call.
type TableSpec struct {
	Tables  string
	Fields  []string
	Where   Filter
	OrderBy string
	Limit   int
}

// Row is one cargo result. Cargo returns every value as text.
type Row map[string]string

// Client is the single gateway to the Leaguepedia API. Every outbound call,
// including login and retries, waits for the shared spacing limiter.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	username       string
	password       string
	maxAttempts    int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
	logger         *logging.Logger
	breaker        *resilience.Breaker
	flight         resilience.SingleFlight

	authMu        sync.Mutex
	authAttempted bool
	authenticated atomic.Bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}
	if httpClient.Jar == nil {
		// login sessions live in cookies
		jar, _ := cookiejar.New(nil)
		httpClient.Jar = jar
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	minInterval := cfg.MinInterval
	if minInterval <= 0 {
		minInterval = defaultMinInterval
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	retryBaseDelay := cfg.RetryBaseDelay
	if retryBaseDelay <= 0 {
		retryBaseDelay = defaultRetryBaseDelay
	}
	breakerCfg := cfg.CircuitBreaker
	if breakerCfg.OnStateChange == nil {
		breakerCfg.OnStateChange = func(from, to resilience.BreakerState) {
			logger.Warn("leaguepedia circuit breaker changed state", "from", from, "to", to)
		}
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		username:       strings.TrimSpace(cfg.Username),
		password:       cfg.Password,
		maxAttempts:    maxAttempts,
		retryBaseDelay: retryBaseDelay,
		limiter:        rate.NewLimiter(rate.Every(minInterval), 1),
		logger:         logger,
		breaker:        resilience.NewBreaker(breakerCfg),
	}
}

// Init performs the one-time login attempt eagerly. Query calls it lazily otherwise.
func (c *Client) Init(ctx context.Context) {
	c.ensureAuthenticated(ctx)
}

// Reset forgets the login outcome so the next call attempts login again.
func (c *Client) Reset() {
	c.authMu.Lock()
	defer c.authMu.Unlock()

	c.authAttempted = false
	c.authenticated.Store(false)
}

func (c *Client) Authenticated() bool {
	return c.authenticated.Load()
}

func (c *Client) Query(ctx context.Context, spec TableSpec) ([]Row, error) {
	params, err := spec.values()
	if err != nil {
		return nil, &ProviderError{Kind: KindBadRequest, Message: "build query", Err: err}
	}

	c.ensureAuthenticated(ctx)

	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "leaguepedia circuit breaker rejected request", "state", c.breaker.State(), "tables", spec.Tables)
		return nil, transientError("provider temporarily unavailable", fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err))
	}

	key := params.Encode()
	out, err, shared := c.flight.Do(key, func() (any, error) {
		rows, attempts, queryErr := c.queryWithRetry(ctx, params)
		c.breaker.Record(queryErr != nil && isCircuitFailure(queryErr) && !isContextDone(queryErr))
		if queryErr != nil {
			c.logger.WarnContext(ctx, "leaguepedia query failed",
				"tables", spec.Tables,
				"attempts", attempts,
				"authenticated", c.Authenticated(),
				"error", queryErr,
			)
			return nil, queryErr
		}
		c.logger.InfoContext(ctx, "leaguepedia query complete",
			"tables", spec.Tables,
			"attempts", attempts,
			"authenticated", c.Authenticated(),
			"rows", len(rows),
		)
		return rows, nil
	})
	if err != nil {
		if shared && ctx.Err() == nil && isContextDone(err) {
			// the caller that owned the shared call went away; ours is still live
			c.flight.Forget(key)
			c.logger.DebugContext(ctx, "shared leaguepedia query cancelled by its owner, retrying", "tables", spec.Tables)
			return c.Query(ctx, spec)
		}
		return nil, err
	}

	rows, ok := out.([]Row)
	if !ok {
		return nil, transientError(fmt.Sprintf("unexpected result type %T", out), nil)
	}
	if shared {
		// callers may mutate rows
		return cloneRows(rows), nil
	}
	return rows, nil
}

func (c *Client) queryWithRetry(ctx context.Context, params url.Values) ([]Row, int, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryBaseDelay
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxInterval = c.retryBaseDelay << 6

	attempts := 0
	rows, err := backoff.Retry(ctx, func() ([]Row, error) {
		attempts++
		c.logger.DebugContext(ctx, "leaguepedia query attempt",
			"attempt", attempts,
			"max_attempts", c.maxAttempts,
			"authenticated", c.Authenticated(),
		)

		rows, err := c.queryOnce(ctx, params)
		if err == nil {
			return rows, nil
		}
		var providerErr *ProviderError
		if stderrors.As(err, &providerErr) && !providerErr.Retryable() {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !isProviderError(err) {
			return nil, attempts, transientError("context done", ctxErr)
		}
		return nil, attempts, err
	}
	return rows, attempts, nil
}

func (c *Client) queryOnce(ctx context.Context, params url.Values) ([]Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &ProviderError{Kind: KindBadRequest, Message: "build request", Err: err}
	}

	raw, status, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &ProviderError{Kind: classifyStatus(status), StatusCode: status, Message: abbreviateBody(raw)}
	}

	var envelope cargoEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, transientError("decode cargo envelope", err)
	}
	if envelope.Error != nil {
		return nil, &ProviderError{
			Kind:       classifyCargoError(envelope.Error.Code),
			StatusCode: status,
			Code:       envelope.Error.Code,
			Message:    envelope.Error.Info,
		}
	}
	if envelope.CargoQuery == nil {
		return nil, transientError("cargo envelope has no cargoquery result", nil)
	}

	rows := make([]Row, 0, len(*envelope.CargoQuery))
	for _, item := range *envelope.CargoQuery {
		rows = append(rows, toRow(item.Title))
	}
	return rows, nil
}

// send waits for the spacing slot, executes req and reads the body.
// Network and read failures come back as transient provider errors.
func (c *Client) send(ctx context.Context, req *http.Request) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, transientError("wait for rate limiter", err)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("user-agent", defaultUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, transientError("send request", err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, resp.StatusCode, transientError("read response body", err)
	}

	raw := make([]byte, buf.Len())
	copy(raw, buf.B)
	return raw, resp.StatusCode, nil
}

func (c *Client) ensureAuthenticated(ctx context.Context) {
	if c.username == "" || c.password == "" {
		return
	}

	c.authMu.Lock()
	defer c.authMu.Unlock()
	if c.authAttempted {
		return
	}
	c.authAttempted = true

	if err := c.login(ctx); err != nil {
		c.logger.WarnContext(ctx, "leaguepedia login failed, continuing anonymously", "username", c.username, "error", err)
		return
	}
	c.authenticated.Store(true)
	c.logger.InfoContext(ctx, "leaguepedia login succeeded", "username", c.username)
}

func (c *Client) login(ctx context.Context) error {
	tokenParams := url.Values{}
	tokenParams.Set("action", "query")
	tokenParams.Set("meta", "tokens")
	tokenParams.Set("type", "login")
	tokenParams.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+tokenParams.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build login token request: %w", err)
	}
	raw, status, err := c.send(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch login token: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("fetch login token: status=%d", status)
	}

	var tokenResp loginTokenEnvelope
	if err := sonic.Unmarshal(raw, &tokenResp); err != nil {
		return fmt.Errorf("decode login token: %w", err)
	}
	token := tokenResp.Query.Tokens.LoginToken
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("login token is empty")
	}

	form := url.Values{}
	form.Set("action", "login")
	form.Set("format", "json")
	form.Set("lgname", c.username)
	form.Set("lgpassword", c.password)
	form.Set("lgtoken", token)

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	raw, status, err = c.send(ctx, req)
	if err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("submit login: status=%d", status)
	}

	var loginResp loginEnvelope
	if err := sonic.Unmarshal(raw, &loginResp); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if loginResp.Login.Result != "Success" {
		return fmt.Errorf("login result=%q reason=%q", loginResp.Login.Result, loginResp.Login.Reason)
	}
	return nil
}

func (s TableSpec) values() (url.Values, error) {
	tables := strings.TrimSpace(s.Tables)
	if tables == "" {
		return nil, fmt.Errorf("tables are required")
	}
	if len(s.Fields) == 0 {
		return nil, fmt.Errorf("fields are required")
	}
	where, err := Render(s.Where)
	if err != nil {
		return nil, err
	}

	values := url.Values{}
	values.Set("action", "cargoquery")
	values.Set("format", "json")
	values.Set("tables", tables)
	values.Set("fields", strings.Join(s.Fields, ","))
	if where != "" {
		values.Set("where", where)
	}
	if orderBy := strings.TrimSpace(s.OrderBy); orderBy != "" {
		values.Set("order_by", orderBy)
	}
	if s.Limit > 0 {
		values.Set("limit", strconv.Itoa(s.Limit))
	}
	return values, nil
}

type cargoEnvelope struct {
	CargoQuery *[]cargoItem `json:"cargoquery"`
	Error      *cargoError  `json:"error"`
}

type cargoItem struct {
	Title map[string]any `json:"title"`
}

type cargoError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

type loginTokenEnvelope struct {
	Query struct {
		Tokens struct {
			LoginToken string `json:"logintoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type loginEnvelope struct {
	Login struct {
		Result string `json:"result"`
		Reason string `json:"reason"`
	} `json:"login"`
}

func toRow(fields map[string]any) Row {
	row := make(Row, len(fields))
	for key, value := range fields {
		switch typed := value.(type) {
		case nil:
			row[key] = ""
		case string:
			row[key] = strings.TrimSpace(typed)
		case float64:
			row[key] = strconv.FormatFloat(typed, 'f', -1, 64)
		case bool:
			row[key] = strconv.FormatBool(typed)
		default:
			row[key] = fmt.Sprint(typed)
		}
	}
	return row
}

func cloneRows(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		copied := make(Row, len(row))
		for key, value := range row {
			copied[key] = value
		}
		out = append(out, copied)
	}
	return out
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, ErrTransient)
}

func isContextDone(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

func isProviderError(err error) bool {
	_, ok := KindOf(err)
	return ok
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
