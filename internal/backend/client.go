package backend

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

	"github.com/google/uuid"

	"github.com/example/swiftride/internal/models"
	"github.com/example/swiftride/internal/observability"
)

const (
	opListDrivers = "list drivers"
	opRequestRide = "request ride"

	maxErrorBytes = 512
)

// Client talks to the ride-hailing backend over its two HTTP endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{Timeout: timeout}}
}

// ListDrivers performs GET {BaseURL}/drivers. A null body decodes to an empty roster.
func (c *Client) ListDrivers(ctx context.Context) (models.Roster, error) {
	var out models.Roster
	if err := c.do(ctx, opListDrivers, "drivers", http.MethodGet, "/drivers", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = models.Roster{}
	}
	return out, nil
}

var errNullRide = errors.New("null ride response")

// RequestRide performs POST {BaseURL}/rides/request with the payload as JSON.
// A null body is a ParseError; there is no ride to show.
func (c *Client) RequestRide(ctx context.Context, p models.RideRequestPayload) (models.RideResponse, error) {
	b, err := json.Marshal(p)
	if err != nil {
		// only non-finite coordinates fail here; the field validators keep them out
		return models.RideResponse{}, fmt.Errorf("%s: encode payload: %w", opRequestRide, err)
	}
	var out *models.RideResponse
	if err := c.do(ctx, opRequestRide, "rides_request", http.MethodPost, "/rides/request", b, &out); err != nil {
		return models.RideResponse{}, err
	}
	if out == nil {
		return models.RideResponse{}, &ParseError{Op: opRequestRide, Err: errNullRide}
	}
	return *out, nil
}

func (c *Client) do(ctx context.Context, op, endpoint, method, path string, body []byte, out any) (err error) {
	start := time.Now()
	defer func() {
		outcome := observability.OutcomeOK
		if err != nil {
			outcome = observability.OutcomeFailed
		}
		observability.BackendRequestDuration.WithLabelValues(endpoint, outcome).Observe(time.Since(start).Seconds())
	}()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		// a caller giving up is not an unreachable backend
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &StatusError{Op: op, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(out); err != nil {
		return &ParseError{Op: op, Err: err}
	}
	// the body must hold exactly one JSON value
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errTrailingData
		}
		return &ParseError{Op: op, Err: err}
	}
	return nil
}

var errTrailingData = errors.New("trailing data after JSON value")

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}
