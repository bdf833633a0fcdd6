package parkhub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/parkhub/parkhub-tui/internal/apperr"
	"github.com/parkhub/parkhub-tui/internal/loader"
)

// Version is reported in the User-Agent header.
const Version = "0.1.0"

const (
	defaultAPIURL    = "127.0.0.1:8000"
	defaultUserAgent = "parkhub-tui/" + Version
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 64 << 10
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the ParkHub REST API.
type Client struct {
	baseURL        *url.URL
	http           *http.Client
	userAgent      string
	tokens         TokenSource
	onUnauthorized func()
	validator      *validator.Validate
	log            zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTokenSource attaches the session whose token is sent as a bearer token.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the callback run when the API answers 401.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// WithLogger attaches a request logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient builds a Client for the API at apiURL ("host:port" or a full URL).
func NewClient(apiURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		validator: newValidator(),
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.UserType = strings.ToLower(strings.TrimSpace(req.UserType))
	if err := c.validate(req); err != nil {
		return LoginResponse{}, err
	}
	var payload LoginResponse
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/auth/login"}, req, &payload); err != nil {
		return LoginResponse{}, err
	}
	if payload.AccessToken == "" {
		return LoginResponse{}, fmt.Errorf("login: %w", apperr.ErrInvalidResponse)
	}
	return payload, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var payload Profile
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: "/users/me"}, nil, &payload); err != nil {
		return Profile{}, err
	}
	return payload, nil
}

// ListParkingLots pages through every lot on the platform.
func (c *Client) ListParkingLots(ctx context.Context, page loader.PageRequest) ([]ParkingLot, error) {
	return getList[ParkingLot](ctx, c, pageURL("/parking-lots/", page, nil))
}

// ListMyParkingLots pages through the signed-in company's lots.
func (c *Client) ListMyParkingLots(ctx context.Context, page loader.PageRequest) ([]ParkingLot, error) {
	return getList[ParkingLot](ctx, c, pageURL("/parking-lots/mine", page, nil))
}

// GetParkingLot fetches one lot.
func (c *Client) GetParkingLot(ctx context.Context, id int64) (ParkingLot, error) {
	if id <= 0 {
		return ParkingLot{}, fmt.Errorf("parking lot id required")
	}
	var payload ParkingLot
	if err := c.do(ctx, http.MethodGet, lotURL(id, ""), nil, &payload); err != nil {
		return ParkingLot{}, err
	}
	return payload, nil
}

// ListPrices returns the pricing rules of a lot.
func (c *Client) ListPrices(ctx context.Context, lotID int64) ([]Price, error) {
	if lotID <= 0 {
		return nil, fmt.Errorf("parking lot id required")
	}
	return getList[Price](ctx, c, lotURL(lotID, "/prices"))
}

// CurrentPrice asks the API which price applies at the given API weekday
// (0 = Monday) and hour.
func (c *Client) CurrentPrice(ctx context.Context, lotID int64, weekday, hour int) (PriceQuote, error) {
	if lotID <= 0 {
		return PriceQuote{}, fmt.Errorf("parking lot id required")
	}
	if weekday < 0 || weekday > 6 || hour < 0 || hour > 23 {
		return PriceQuote{}, fmt.Errorf("weekday %d hour %d out of range", weekday, hour)
	}
	rel := lotURL(lotID, "/current-price")
	values := url.Values{}
	values.Set("weekday", strconv.Itoa(weekday))
	values.Set("hour", strconv.Itoa(hour))
	rel.RawQuery = values.Encode()

	var payload PriceQuote
	if err := c.do(ctx, http.MethodGet, rel, nil, &payload); err != nil {
		return PriceQuote{}, err
	}
	return payload, nil
}

// CreatePrice registers a pricing rule.
func (c *Client) CreatePrice(ctx context.Context, in PriceInput) (Price, error) {
	if err := c.validate(in); err != nil {
		return Price{}, err
	}
	var payload Price
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/prices/"}, in, &payload); err != nil {
		return Price{}, err
	}
	return payload, nil
}

// ListLotActiveVehicles returns the vehicles currently parked in a lot.
func (c *Client) ListLotActiveVehicles(ctx context.Context, lotID int64) ([]ActiveSession, error) {
	if lotID <= 0 {
		return nil, fmt.Errorf("parking lot id required")
	}
	return getList[ActiveSession](ctx, c, lotURL(lotID, "/active-vehicles"))
}

// ListVehicles pages through the signed-in driver's vehicles.
func (c *Client) ListVehicles(ctx context.Context, page loader.PageRequest) ([]Vehicle, error) {
	return getList[Vehicle](ctx, c, pageURL("/vehicles/", page, nil))
}

// CreateVehicle registers a vehicle. The plate is normalized before validation.
func (c *Client) CreateVehicle(ctx context.Context, in VehicleInput) (Vehicle, error) {
	in.Plate = NormalizePlate(in.Plate)
	in.Country = strings.ToUpper(strings.TrimSpace(in.Country))
	in.Name = strings.TrimSpace(in.Name)
	if err := c.validate(in); err != nil {
		return Vehicle{}, err
	}
	var payload Vehicle
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: "/vehicles/"}, in, &payload); err != nil {
		return Vehicle{}, err
	}
	return payload, nil
}

// ListActiveSessions returns the signed-in driver's vehicles that are parked
// right now.
func (c *Client) ListActiveSessions(ctx context.Context) ([]ActiveSession, error) {
	return getList[ActiveSession](ctx, c, &url.URL{Path: "/vehicles/active"})
}

// ListEntries pages through the company's entries, optionally bounded in time.
func (c *Client) ListEntries(ctx context.Context, page loader.PageRequest, filter EntryFilter) ([]Entry, error) {
	values := url.Values{}
	if !filter.Start.IsZero() {
		values.Set("start_date", filter.Start.UTC().Format(time.RFC3339))
	}
	if !filter.End.IsZero() {
		values.Set("end_date", filter.End.UTC().Format(time.RFC3339))
	}
	return getList[Entry](ctx, c, pageURL("/entries/", page, values))
}

// RegisterEntry records a vehicle entering a lot.
func (c *Client) RegisterEntry(ctx context.Context, in EntryInput) (Entry, error) {
	return c.postEntry(ctx, "/entries/", in)
}

// RegisterExit closes the open entry of a vehicle.
func (c *Client) RegisterExit(ctx context.Context, in EntryInput) (Entry, error) {
	return c.postEntry(ctx, "/exits/", in)
}

func (c *Client) postEntry(ctx context.Context, path string, in EntryInput) (Entry, error) {
	in.Plate = NormalizePlate(in.Plate)
	if err := c.validate(in); err != nil {
		return Entry{}, err
	}
	var payload Entry
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: path}, in, &payload); err != nil {
		return Entry{}, err
	}
	return payload, nil
}

// getList fetches an endpoint whose payload must be a JSON array.
func getList[T any](ctx context.Context, c *Client, rel *url.URL) ([]T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, rel, nil, &raw); err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("api %s: expected a list: %w", rel.Path, apperr.ErrInvalidResponse)
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode response: %w: %v", apperr.ErrInvalidResponse, err)
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok, ok := c.tokens.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Str("path", rel.Path).Str("request_id", requestID).Msg("request failed")
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug().
		Str("method", method).
		Str("path", rel.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Str("request_id", requestID).
		Msg("api request")

	if resp.StatusCode >= 400 {
		apiErr := &apperr.APIError{
			Status: resp.StatusCode,
			Detail: readDetail(resp.Body),
			Path:   rel.Path,
		}
		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return apiErr
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w: empty body", apperr.ErrInvalidResponse)
		}
		return fmt.Errorf("decode response: %w: %v", apperr.ErrInvalidResponse, err)
	}
	return nil
}

// readDetail extracts the "detail" field of an error body. It is either a
// message or a list of field errors with a "msg" each.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}
	var message string
	if err := json.Unmarshal(envelope.Detail, &message); err == nil {
		return strings.TrimSpace(message)
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func pageURL(path string, page loader.PageRequest, values url.Values) *url.URL {
	if values == nil {
		values = url.Values{}
	}
	skip := page.Skip
	if skip < 0 {
		skip = 0
	}
	limit := page.Limit
	if limit <= 0 {
		limit = loader.DefaultLimit
	}
	values.Set("skip", strconv.Itoa(skip))
	values.Set("limit", strconv.Itoa(limit))
	return &url.URL{Path: path, RawQuery: values.Encode()}
}

func lotURL(id int64, suffix string) *url.URL {
	return &url.URL{Path: "/parking-lots/" + strconv.FormatInt(id, 10) + suffix}
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
