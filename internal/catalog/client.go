// Package catalog talks to the remote exercise catalog.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"

	"alcyxob/fitness-log/internal/config"
	"alcyxob/fitness-log/internal/domain"
)

// ErrUnavailable is returned for any failed lookup: transport error, timeout,
// non-2xx status, undecodable body or an open breaker.
var ErrUnavailable = errors.New("exercise catalog unavailable")

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 4 << 20

// Client looks exercises up in the remote catalog.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	// callBudget bounds one shared lookup including every retry.
	callBudget time.Duration

	http *http.Client
	cb   *gobreaker.CircuitBreaker
	sf   singleflight.Group
	log  *logrus.Logger
}

// NewClient builds a catalog client. httpClient may be nil.
func NewClient(cfg config.CatalogConfig, httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	st := gobreaker.Settings{
		Name:        "ExerciseCatalog",
		MaxRequests: cfg.BreakerMaxRequests,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// Cancellation is never the catalog's fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}

	maxRetries := max(cfg.MaxRetries, 0)
	callBudget := timeout * time.Duration(maxRetries+1)
	if maxRetries > 0 {
		callBudget += cfg.RetryBackoff << maxRetries
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    cfg.RetryBackoff,
		callBudget: callBudget,
		http:       httpClient,
		cb:         gobreaker.NewCircuitBreaker(st),
		log:        log,
	}
}

// LookupByType returns the catalog's exercises of one category.
func (c *Client) LookupByType(ctx context.Context, typ string) ([]domain.RawExercise, error) {
	return c.lookup(ctx, "type", typ)
}

// LookupByName returns the catalog's exercises matching name.
func (c *Client) LookupByName(ctx context.Context, name string) ([]domain.RawExercise, error) {
	return c.lookup(ctx, "name", name)
}

func (c *Client) lookup(ctx context.Context, param, value string) ([]domain.RawExercise, error) {
	// A caller that already gave up never reaches the breaker.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	// Identical lookups in flight share one remote call. The shared call is
	// detached from whichever caller started it, so one caller leaving does not
	// fail the others; each caller still stops waiting when its own ctx ends.
	ch := c.sf.DoChan(param+"="+value, func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.callBudget)
		defer cancel()
		return c.cb.Execute(func() (interface{}, error) {
			return c.fetchWithRetry(callCtx, param, value)
		})
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	case res = <-ch:
	}

	if res.Err != nil {
		c.log.WithError(res.Err).WithFields(logrus.Fields{param: value}).Warn("Catalog lookup failed")
		if errors.Is(res.Err, ErrUnavailable) {
			return nil, res.Err
		}
		// gobreaker.ErrOpenState and ErrTooManyRequests land here.
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, res.Err)
	}
	records := res.Val.([]domain.RawExercise)
	if res.Shared {
		// Callers must not share a backing array.
		records = append([]domain.RawExercise(nil), records...)
	}
	return records, nil
}

// statusError is a non-2xx response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("catalog responded with status %d", e.code)
}

// retryable reports whether another attempt could succeed.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	var de *decodeError
	return !errors.As(err, &de)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode catalog response: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func (c *Client) fetchWithRetry(ctx context.Context, param, value string) ([]domain.RawExercise, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := c.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
			case <-time.After(wait):
			}
		}

		records, err := c.fetch(ctx, param, value)
		if err == nil {
			return records, nil
		}
		lastErr = err
		if !retryable(err) || ctx.Err() != nil {
			break
		}
		c.log.WithError(err).WithField("attempt", attempt+1).Debug("Retrying catalog lookup")
	}
	return nil, fmt.Errorf("%w: %w", ErrUnavailable, lastErr)
}

func (c *Client) fetch(ctx context.Context, param, value string) ([]domain.RawExercise, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &decodeError{err: err}
	}
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &decodeError{err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &statusError{code: resp.StatusCode}
	}

	var records []domain.RawExercise
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&records); err != nil {
		return nil, &decodeError{err: err}
	}
	return dedupe(records), nil
}

// dedupe drops records that exactly repeat an earlier one, keeping first-seen order.
func dedupe(records []domain.RawExercise) []domain.RawExercise {
	seen := make(map[domain.RawExercise]struct{}, len(records))
	out := make([]domain.RawExercise, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
