// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/sentinel-tui/internal/util"
)

// Configuration constants for the triage API.
const (
	// DefaultBaseURL is the reference deployment address.
	DefaultBaseURL = "http://localhost:8000"

	// DefaultTimeout bounds every request, including upload.
	DefaultTimeout = 30 * time.Second

	// DefaultEventLimit is the page size for GET /events.
	DefaultEventLimit = 100

	// DefaultTopIPLimit is the server's own default for GET /stats/top-ips.
	DefaultTopIPLimit = 5

	// MaxResponseSize caps how much of a response body is read.
	MaxResponseSize = 10 * 1024 * 1024

	// DefaultUserAgent is sent when no other agent is configured.
	DefaultUserAgent = "sentinel-tui"
)

// uploadExtensions are the log formats the server ingests.
var uploadExtensions = map[string]bool{
	".csv":  true,
	".json": true,
}

// sharedTransport pools connections across every Client in the process.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// TokenSource supplies the bearer token for protected calls.
// session.Manager implements it.
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the triage server. Methods are safe for concurrent use;
// the With* builders are not and should be called during setup only.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	limiter    *rate.Limiter
	userAgent  string
	logger     *zap.Logger
}

// NewClient creates a client for the server at baseURL. An empty baseURL
// selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		userAgent: DefaultUserAgent,
		logger:    zap.NewNop(),
	}
}

// WithTimeout sets the per-request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = timeout
		c.httpClient = &hc
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client (tests use this with
// httptest servers).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithTokenSource sets where protected calls get their bearer token.
func (c *Client) WithTokenSource(ts TokenSource) *Client {
	c.tokens = ts
	return c
}

// WithRateLimit throttles outbound requests to perSec with the given burst.
// A non-positive rate disables throttling.
func (c *Client) WithRateLimit(perSec float64, burst int) *Client {
	if perSec <= 0 {
		c.limiter = nil
		return c
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(perSec), burst)
	return c
}

// WithUserAgent overrides the User-Agent header.
func (c *Client) WithUserAgent(ua string) *Client {
	if ua != "" {
		c.userAgent = ua
	}
	return c
}

// WithLogger sets the logger for request tracing.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	c.logger = util.OrNop(logger).Named("api")
	return c
}

// BaseURL returns the server address the client was built for.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// READ ENDPOINTS
// =============================================================================

// Events lists recent events. A zero Limit uses DefaultEventLimit.
func (c *Client) Events(ctx context.Context, q EventQuery) ([]Event, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.SourceIP != "" {
		query.Set("source_ip", q.SourceIP)
	}
	if q.AttackType != "" {
		query.Set("attack_type", q.AttackType)
	}
	if q.IsSuccessful != nil {
		query.Set("is_successful", strconv.FormatBool(*q.IsSuccessful))
	}

	var events []Event
	err := c.send(ctx, call{
		op:     "GET /events",
		method: http.MethodGet,
		path:   "/events",
		query:  query,
		kind:   ErrRequestFailed,
		schema: schemaEvents,
	}, &events)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Timeline returns the time-bucketed attempt/success counts.
func (c *Client) Timeline(ctx context.Context) ([]TimelineBucket, error) {
	var buckets []TimelineBucket
	err := c.send(ctx, call{
		op:     "GET /stats/timeline",
		method: http.MethodGet,
		path:   "/stats/timeline",
		kind:   ErrRequestFailed,
		schema: schemaTimeline,
	}, &buckets)
	if err != nil {
		return nil, err
	}
	return buckets, nil
}

// TopIPs returns the most active source addresses. A non-positive limit
// leaves the choice to the server.
func (c *Client) TopIPs(ctx context.Context, limit int) ([]TopIPEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var entries []TopIPEntry
	err := c.send(ctx, call{
		op:     "GET /stats/top-ips",
		method: http.MethodGet,
		path:   "/stats/top-ips",
		query:  query,
		kind:   ErrRequestFailed,
		schema: schemaTopIPs,
	}, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Explain fetches the classification rationale for one event.
func (c *Client) Explain(ctx context.Context, eventID string) (*Explanation, error) {
	if eventID == "" {
		return nil, &Error{Op: "GET /explain/{event_id}", Kind: ErrRequestFailed, Detail: "event id is required"}
	}
	var exp Explanation
	err := c.send(ctx, call{
		op:     "GET /explain/{event_id}",
		method: http.MethodGet,
		path:   "/explain/" + url.PathEscape(eventID),
		kind:   ErrRequestFailed,
		schema: schemaExplanation,
	}, &exp)
	if err != nil {
		return nil, err
	}
	if exp.RuleHits == nil {
		exp.RuleHits = map[string][]string{}
	}
	if exp.EventID == "" {
		exp.EventID = eventID
	}
	return &exp, nil
}

// Storyline fetches the activity history of one source address, ordered by
// timestamp ascending. Entries for any other address are rejected.
func (c *Client) Storyline(ctx context.Context, sourceIP string) ([]Event, error) {
	const op = "GET /storyline/{source_ip}"
	if sourceIP == "" {
		return nil, &Error{Op: op, Kind: ErrRequestFailed, Detail: "source ip is required"}
	}
	var events []Event
	err := c.send(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/storyline/" + url.PathEscape(sourceIP),
		kind:   ErrRequestFailed,
		schema: schemaEvents,
	}, &events)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if ev.SourceIP != sourceIP {
			return nil, &Error{
				Op:     op,
				Kind:   ErrRequestFailed,
				Status: http.StatusOK,
				Detail: fmt.Sprintf("storyline for %s contains event %s from %s", sourceIP, ev.EventID, ev.SourceIP),
				Err:    ErrMalformedResponse,
			}
		}
	}
	SortByTime(events)
	return events, nil
}

// =============================================================================
// PROTECTED ENDPOINTS
// =============================================================================

// ValidateUploadName reports whether name has an extension the server
// ingests.
func ValidateUploadName(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !uploadExtensions[ext] {
		return fmt.Errorf("unsupported log format %q: expected .csv or .json", ext)
	}
	return nil
}

// UploadLogs sends a log file as multipart field "file". When clearExisting
// is set the server wipes stored events before ingesting.
func (c *Client) UploadLogs(ctx context.Context, name string, r io.Reader, clearExisting bool) (*MessageResponse, error) {
	const op = "POST /upload/logs"
	if err := ValidateUploadName(name); err != nil {
		return nil, &Error{Op: op, Kind: ErrUploadFailed, Detail: err.Error(), Err: err}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrUploadFailed, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, &Error{Op: op, Kind: ErrUploadFailed, Detail: "could not read log file", Err: err}
	}
	if err := mw.Close(); err != nil {
		return nil, &Error{Op: op, Kind: ErrUploadFailed, Err: err}
	}

	query := url.Values{}
	query.Set("clear_existing", strconv.FormatBool(clearExisting))

	var msg MessageResponse
	err = c.send(ctx, call{
		op:          op,
		method:      http.MethodPost,
		path:        "/upload/logs",
		query:       query,
		body:        &body,
		contentType: mw.FormDataContentType(),
		auth:        true,
		kind:        ErrUploadFailed,
		schema:      schemaMessage,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ClearEvents deletes every stored event.
func (c *Client) ClearEvents(ctx context.Context) (*MessageResponse, error) {
	var msg MessageResponse
	err := c.send(ctx, call{
		op:     "DELETE /events",
		method: http.MethodDelete,
		path:   "/events",
		auth:   true,
		kind:   ErrClearFailed,
		schema: schemaMessage,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login exchanges credentials for a token. The body is form-encoded.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var resp LoginResponse
	err := c.send(ctx, call{
		op:          "POST /auth/login",
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		kind:        ErrAuthenticationFailed,
		schema:      schemaLogin,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Signup creates an account. A rejection (duplicate username, validation)
// carries the server's detail message unchanged.
func (c *Client) Signup(ctx context.Context, username, password string) (*User, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, &Error{Op: "POST /auth/signup", Kind: ErrSignupFailed, Err: err}
	}

	var user User
	err = c.send(ctx, call{
		op:          "POST /auth/signup",
		method:      http.MethodPost,
		path:        "/auth/signup",
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		kind:        ErrSignupFailed,
		schema:      schemaSignup,
	}, &user)
	if err != nil {
		return nil, err
	}
	if user.Username == "" {
		user.Username = username
	}
	return &user, nil
}

// Me resolves token to the identity it belongs to. The token is passed
// explicitly because it is called before the session holds one.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, &Error{Op: "GET /auth/me", Kind: ErrRequestFailed, Detail: "not logged in", Err: ErrNotAuthenticated}
	}
	var user User
	err := c.send(ctx, call{
		op:     "GET /auth/me",
		method: http.MethodGet,
		path:   "/auth/me",
		token:  token,
		auth:   true,
		kind:   ErrRequestFailed,
		schema: schemaUser,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// call describes one request.
type call struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	// auth attaches a bearer token: token when set, else the TokenSource.
	auth   bool
	token  string
	kind   error
	schema schemaKind
}

// send performs c, maps failures to *Error and decodes a validated body
// into out.
func (c *Client) send(ctx context.Context, cl call, out any) error {
	fail := func(status int, detail string, cause error) error {
		return &Error{Op: cl.op, Kind: cl.kind, Status: status, Detail: detail, Err: cause}
	}

	token := cl.token
	if cl.auth && token == "" {
		if c.tokens != nil {
			token, _ = c.tokens.Token()
		}
		if token == "" {
			return fail(0, "not logged in", ErrNotAuthenticated)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fail(0, "", err)
		}
	}

	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, u, cl.body)
	if err != nil {
		return fail(0, "", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("request",
		zap.String("op", cl.op),
		zap.String("request_id", requestID),
		zap.String("token", util.Fingerprint(token)),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("transport error", zap.String("op", cl.op), zap.String("request_id", requestID), zap.Error(err))
		return fail(0, transportDetail(err), err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp.Body)
	c.logger.Debug("response",
		zap.String("op", cl.op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(body)),
	)
	if err != nil {
		return fail(resp.StatusCode, "could not read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var cause error
		if resp.StatusCode == http.StatusUnauthorized && token != "" {
			cause = ErrSessionInvalid
		}
		return fail(resp.StatusCode, parseDetail(resp.StatusCode, body), cause)
	}

	if err := validateBody(cl.schema, body); err != nil {
		c.logger.Warn("rejected response", zap.String("op", cl.op), zap.String("request_id", requestID), zap.Error(err))
		return fail(resp.StatusCode, "server returned an unexpected response", errors.Join(ErrMalformedResponse, err))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fail(resp.StatusCode, "server returned an unexpected response", errors.Join(ErrMalformedResponse, err))
	}
	return nil
}

// readResponse reads at most MaxResponseSize bytes of body.
func readResponse(body io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxResponseSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeds %d bytes", MaxResponseSize)
	}
	return data, nil
}

// transportDetail turns a transport failure into a short message.
func transportDetail(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return "request timed out"
	}
	return "could not reach server"
}
