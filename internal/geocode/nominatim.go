// Package geocode is a client for the Nominatim (OpenStreetMap) geocoding
// service. It does not throttle: callers issuing several lookups in a row
// must pace them to honour the public service's one-request-per-second
// usage policy.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jaimegago/geoai/internal/geo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// DefaultBaseURL is the public Nominatim endpoint.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultUserAgent identifies the application, as the usage policy requires.
	DefaultUserAgent = "geoai_agent_extended"

	// DefaultTimeout bounds a single request when the caller's context has
	// no earlier deadline.
	DefaultTimeout = 10 * time.Second
)

// Config holds the client settings. It is copied at construction.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Language  string
}

// ServiceError reports a failed exchange with the geocoding service.
// StatusCode is zero when no HTTP response was received.
type ServiceError struct {
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("nominatim returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("nominatim request failed: %v", e.Err)
}

func (e *ServiceError) Unwrap() []error {
	return []error{geo.ErrServiceUnavailable, e.Err}
}

// Client performs forward and reverse lookups.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client, filling unset fields of cfg with defaults.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid geocoder base URL %q: %w", cfg.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid geocoder base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	c := &Client{
		cfg:     cfg,
		baseURL: base,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// searchResult is one element of the /search reply.
type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// reverseResult is the /reverse reply. Error is set instead of the other
// fields when nothing lies at the requested point.
type reverseResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

// Forward resolves a free-form place name to its best match. A name with no
// match yields the zero geo.Place and a nil error.
func (c *Client) Forward(ctx context.Context, placeName string) (geo.Place, error) {
	name := strings.TrimSpace(placeName)
	if name == "" {
		return geo.Place{}, fmt.Errorf("%w: place name must not be empty", geo.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("q", name)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return geo.Place{}, err
	}

	if len(results) == 0 {
		c.logger.Debug("geocode_no_match", "query", name)
		return geo.Place{}, nil
	}

	return toPlace(results[0].DisplayName, results[0].Lat, results[0].Lon)
}

// Reverse finds the address nearest to coords. A point with nothing nearby
// (open ocean) yields the zero geo.Place and a nil error.
func (c *Client) Reverse(ctx context.Context, coords geo.Coordinates) (geo.Place, error) {
	params := url.Values{}
	params.Set("lat", geo.FormatDegrees(coords.Lat()))
	params.Set("lon", geo.FormatDegrees(coords.Lon()))
	params.Set("format", "jsonv2")

	var result reverseResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return geo.Place{}, err
	}

	if result.Error != "" || result.DisplayName == "" {
		c.logger.Debug("reverse_geocode_no_match", "coordinates", coords.String(), "reason", result.Error)
		return geo.Place{}, nil
	}

	// Nominatim echoes the matched object's position; the query point is
	// what the caller asked about, so keep it when the echo is unusable.
	place, err := toPlace(result.DisplayName, result.Lat, result.Lon)
	if err != nil {
		return geo.NewPlace(result.DisplayName, coords), nil
	}
	return place, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if c.cfg.Language != "" {
		params.Set("accept-language", c.cfg.Language)
	}
	u := c.baseURL.JoinPath(path)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("geocode_request_failed", "path", path, "error", err)
		return &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("geocode_request",
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &ServiceError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func toPlace(name, lat, lon string) (geo.Place, error) {
	latF, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Place{}, &ServiceError{Err: fmt.Errorf("invalid latitude %q in response: %w", lat, err)}
	}
	lonF, err := strconv.ParseFloat(lon, 64)
	if err != nil {
		return geo.Place{}, &ServiceError{Err: fmt.Errorf("invalid longitude %q in response: %w", lon, err)}
	}
	coords, err := geo.NewCoordinates(latF, lonF)
	if err != nil {
		// A bad position in the reply is the service's fault, not the caller's.
		return geo.Place{}, &ServiceError{Err: fmt.Errorf("invalid position in response: %s, %s", lat, lon)}
	}
	return geo.NewPlace(name, coords), nil
}
