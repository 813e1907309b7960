package communicator

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bilal/transition-relay/internal/config"
	"github.com/bilal/transition-relay/internal/metrics"
	"github.com/bilal/transition-relay/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// OperationPlaceholder is replaced by the operation name in the URL template.
	OperationPlaceholder = "{operation}"

	// VerbosityEcho and above log outgoing bodies and raw responses.
	VerbosityEcho = 2

	// DefaultMaxResponseBytes caps how much of a response body is kept.
	DefaultMaxResponseBytes = 1 << 20
)

// Communicator posts form-encoded submissions to the aggregation service.
// One call is one POST; nothing is queued or retried.
type Communicator struct {
	template  string
	client    *http.Client
	token     string
	verbosity int
	maxBody   int64
	logger    zerolog.Logger
}

// New creates a communicator from the relay section of cfg.
func New(cfg *config.Config) *Communicator {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.Relay.InsecureSkipVerify,
	}
	client := &http.Client{
		Timeout: cfg.Relay.Timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsCfg,
		},
	}

	token := ""
	if cfg.Relay.AuthTokenEnv != "" {
		token = os.Getenv(cfg.Relay.AuthTokenEnv)
	}

	return &Communicator{
		template:  cfg.Relay.URLTemplate,
		client:    client,
		token:     token,
		verbosity: cfg.Relay.Verbosity,
		maxBody:   DefaultMaxResponseBytes,
		logger:    log.Logger,
	}
}

// Endpoint substitutes op into template. A template without the placeholder
// is taken as a base URL and op is appended as the last path segment.
func Endpoint(template string, op telemetry.Operation) string {
	if strings.Contains(template, OperationPlaceholder) {
		return strings.ReplaceAll(template, OperationPlaceholder, string(op))
	}
	return strings.TrimRight(template, "/") + "/" + string(op)
}

// Response is the outcome of one POST. Err is set when the request could
// not be built or sent; a non-2xx reply only sets StatusCode.
type Response struct {
	Operation     telemetry.Operation
	URL           string
	CorrelationID string
	StatusCode    int
	Body          string
	Truncated     bool // Body was cut at the response size cap
	Duration      time.Duration
	Err           error
}

// OK reports a completed transfer with a 2xx status.
func (r Response) OK() bool {
	return r.Err == nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Post sends fields to the endpoint for op. Failures are logged, counted and
// reported through the Response; they are never returned as an error.
func (c *Communicator) Post(ctx context.Context, op telemetry.Operation, fields telemetry.Fields) Response {
	resp := Response{
		Operation:     op,
		URL:           Endpoint(c.template, op),
		CorrelationID: uuid.New().String(),
	}
	body := fields.Encode()

	if c.verbosity >= VerbosityEcho {
		c.echo().
			Bool("echo", true).
			Str("operation", string(op)).
			Str("url", resp.URL).
			Str("body", body).
			Msg("relay request")
	}

	start := time.Now()
	resp.StatusCode, resp.Body, resp.Truncated, resp.Err = c.do(ctx, resp.URL, resp.CorrelationID, body)
	resp.Duration = time.Since(start)

	metrics.RelayDuration.WithLabelValues(string(op)).Observe(resp.Duration.Seconds())
	c.record(resp)

	return resp
}

// echo is the diagnostic sink for verbosity 2. It logs without a level so
// the configured log level does not hide it.
func (c *Communicator) echo() *zerolog.Event {
	return c.logger.WithLevel(zerolog.NoLevel)
}

func (c *Communicator) do(ctx context.Context, url, correlation, body string) (int, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return 0, "", false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Correlation-ID", correlation)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return 0, "", false, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	// one byte past the cap tells a full body from a cut one
	data, err := io.ReadAll(io.LimitReader(res.Body, c.maxBody+1))
	truncated := int64(len(data)) > c.maxBody
	if truncated {
		data = data[:c.maxBody]
	}
	if err != nil {
		return res.StatusCode, string(data), truncated, fmt.Errorf("read response: %w", err)
	}
	return res.StatusCode, string(data), truncated, nil
}

func (c *Communicator) record(resp Response) {
	outcome := "ok"
	switch {
	case resp.Err != nil:
		outcome = "error"
	case !resp.OK():
		outcome = "rejected"
	}
	metrics.RelayTotal.WithLabelValues(string(resp.Operation), outcome).Inc()

	if c.verbosity >= VerbosityEcho {
		ev := c.echo().
			Bool("echo", true).
			Str("operation", string(resp.Operation)).
			Str("correlation", resp.CorrelationID)
		if resp.Err != nil {
			ev.Err(resp.Err).Msg("relay response: error")
		} else {
			ev.Int("status", resp.StatusCode).Str("body", resp.Body).Msg("relay response")
		}
	}

	if resp.Truncated {
		c.logger.Warn().
			Int64("limit", c.maxBody).
			Str("operation", string(resp.Operation)).
			Str("correlation", resp.CorrelationID).
			Msg("relay response body truncated")
	}

	switch outcome {
	case "error":
		c.logger.Warn().Err(resp.Err).
			Str("operation", string(resp.Operation)).
			Str("correlation", resp.CorrelationID).
			Msg("relay post failed, dropping submission")
	case "rejected":
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("operation", string(resp.Operation)).
			Str("correlation", resp.CorrelationID).
			Msg("relay post rejected")
	default:
		c.logger.Debug().
			Str("operation", string(resp.Operation)).
			Str("correlation", resp.CorrelationID).
			Dur("duration", resp.Duration).
			Msg("submission relayed")
	}
}
