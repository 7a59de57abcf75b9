package synergy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/openvue/gradepoint/internal/domain/course"
	"github.com/openvue/gradepoint/internal/platform/logging"
	"github.com/openvue/gradepoint/internal/platform/resilience"
	"github.com/openvue/gradepoint/internal/usecase"
)

const (
	defaultTimeout  = 20 * time.Second
	maxResponseSize = 6 << 20

	opGradebookInfo = "gradebook.info"
	opCourses       = "gradebook.courses"
	opCourse        = "gradebook.course"
	opDistricts     = "district.list"
)

var bearerTokenRegex = regexp.MustCompile(`Bearer [^\s"']+`)
var errSynergyTransient = crerr.New("synergy transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to a Synergy gateway over its JSON operation endpoint.
// It implements course.Source.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

var _ course.Source = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     maxRetries,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) GradebookInfo(ctx context.Context) (course.GradebookInfo, error) {
	var payload gradebookInfoPayload
	if err := c.call(ctx, opGradebookInfo, nil, &payload); err != nil {
		return course.GradebookInfo{}, fmt.Errorf("fetch gradebook info: %w", err)
	}

	periods := make([]course.GradingPeriod, 0, len(payload.ReportingPeriods))
	for _, item := range payload.ReportingPeriods {
		period, err := mapReportingPeriod(item)
		if err != nil {
			return course.GradebookInfo{}, fmt.Errorf("map reporting period: %w", err)
		}
		periods = append(periods, period)
	}

	return course.GradebookInfo{
		Periods:         periods,
		DefaultPeriodID: strings.TrimSpace(payload.DefaultPeriod),
		InstitutionID:   strings.TrimSpace(payload.InstitutionID),
	}, nil
}

func (c *Client) Courses(ctx context.Context, periodID string) ([]course.Course, error) {
	if strings.TrimSpace(periodID) == "" {
		return nil, fmt.Errorf("%w: report period is required", usecase.ErrInvalidInput)
	}

	var payload coursesPayload
	params := map[string]string{"reportPeriod": periodID}
	if err := c.call(ctx, opCourses, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch courses period=%s: %w", periodID, err)
	}

	out := make([]course.Course, 0, len(payload.Courses))
	for _, item := range payload.Courses {
		mapped, err := mapCourse(periodID, item)
		if err != nil {
			return nil, fmt.Errorf("map course period=%s: %w", periodID, err)
		}
		out = append(out, mapped)
	}
	return out, nil
}

func (c *Client) Course(ctx context.Context, periodID, courseID string) (course.Course, bool, error) {
	if strings.TrimSpace(periodID) == "" || strings.TrimSpace(courseID) == "" {
		return course.Course{}, false, fmt.Errorf("%w: report period and course id are required", usecase.ErrInvalidInput)
	}

	var payload coursesPayload
	params := map[string]string{"reportPeriod": periodID, "courseId": courseID}
	if err := c.call(ctx, opCourse, params, &payload); err != nil {
		return course.Course{}, false, fmt.Errorf("fetch course %s:%s: %w", periodID, courseID, err)
	}
	if len(payload.Courses) == 0 {
		return course.Course{}, false, nil
	}

	mapped, err := mapCourse(periodID, payload.Courses[0])
	if err != nil {
		return course.Course{}, false, fmt.Errorf("map course %s:%s: %w", periodID, courseID, err)
	}
	return mapped, true, nil
}

func (c *Client) Districts(ctx context.Context, zipCode string) ([]course.DistrictInfo, error) {
	if strings.TrimSpace(zipCode) == "" {
		return nil, fmt.Errorf("%w: zip code is required", usecase.ErrInvalidInput)
	}

	var payload districtsPayload
	params := map[string]string{"zip": zipCode}
	if err := c.call(ctx, opDistricts, params, &payload); err != nil {
		return nil, fmt.Errorf("fetch districts zip=%s: %w", zipCode, err)
	}

	out := make([]course.DistrictInfo, 0, len(payload.Districts))
	for _, item := range payload.Districts {
		mapped := mapDistrict(item)
		if mapped.Host == "" {
			continue
		}
		out = append(out, mapped)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// call runs one gateway operation: circuit gate, request coalescing per
// operation+params, retries inside, then envelope decode.
func (c *Client) call(ctx context.Context, operation string, params map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "synergy circuit breaker rejected request", "operation", operation, "state", c.breaker.State())
			return fmt.Errorf("%w: grade source is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	body, err := sonic.Marshal(requestEnvelope{Operation: operation, Params: params})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	out, err, _ := c.flight.Do(flightKey(operation, params), func() (any, error) {
		raw, reqErr := c.executeRequest(ctx, body)
		if c.circuitEnabled {
			if reqErr != nil && crerr.Is(reqErr, errSynergyTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	raw, ok := out.([]byte)
	if !ok {
		return fmt.Errorf("unexpected response payload type %T", out)
	}

	var envelope responseEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode gateway payload: %w", err)
	}
	if envelope.Error != nil {
		if strings.EqualFold(envelope.Error.Code, "unauthorized") {
			return fmt.Errorf("%w: %s", usecase.ErrUnauthorized, envelope.Error.Message)
		}
		return fmt.Errorf("gateway error code=%s: %s", envelope.Error.Code, envelope.Error.Message)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("gateway returned no data for %s", operation)
	}

	if err := sonic.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("decode %s data: %w", operation, err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, body []byte) ([]byte, error) {
	endpoint := c.baseURL + "/service"

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errSynergyTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errSynergyTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				return nil, fmt.Errorf("%w: gateway status=%d", usecase.ErrUnauthorized, resp.StatusCode)
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: gateway status=%d body=%s", errSynergyTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("gateway status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("gateway request failed")
	}
	c.logger.WarnContext(ctx, "synergy request failed", "url", endpoint, "error", lastErr)
	return nil, lastErr
}

// flightKey builds the coalescing key from the operation and its sorted
// params without allocating per-param strings.
func flightKey(operation string, params map[string]string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(operation)
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		_ = buf.WriteByte('|')
		_, _ = buf.WriteString(key)
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(params[key])
	}
	return buf.String()
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const max = 512
	value := strings.TrimSpace(string(raw))
	if len(value) > max {
		return value[:max] + "...(truncated)"
	}
	return value
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return bearerTokenRegex.ReplaceAllString(value, "Bearer REDACTED")
}
