// Package client talks to the Project Camp API. It keeps the session alive by
// refreshing the access token once for any number of concurrent 401s.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"project-camp/api/logging"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

const (
	LoginPath      = "/login"
	apiPrefix      = "/api/v1"
	refreshPath    = "/auth/refresh-token"
	loginPath      = "/auth/login"
	defaultTimeout = 10 * time.Second
)

// RefreshState traces one request through the 401 handling.
type RefreshState int

const (
	StateInitial RefreshState = iota
	StateFailed
	StateRefreshing
	StateRetried
	StateSucceeded
	StateFailedFinal
)

func (s RefreshState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateFailed:
		return "failed"
	case StateRefreshing:
		return "refreshing"
	case StateRetried:
		return "retried"
	case StateSucceeded:
		return "succeeded"
	case StateFailedFinal:
		return "failed-final"
	default:
		return "unknown"
	}
}

type Options struct {
	HTTPClient  *http.Client
	Credentials CredentialStore
	Notifier    Notifier
	Navigator   Navigator
	Auth        *AuthState
	// OnState observes refresh transitions; tests use it to follow the flow.
	OnState func(RefreshState)
}

type Client struct {
	baseURL  string
	http     *http.Client
	jar      *sessionJar
	creds    CredentialStore
	notifier Notifier
	nav      Navigator
	auth     *AuthState
	onState  func(RefreshState)
	breaker  *gobreaker.CircuitBreaker
	refresh  singleflight.Group
}

func New(baseURL string, opts Options) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		jar:      newSessionJar(),
		creds:    opts.Credentials,
		notifier: opts.Notifier,
		nav:      opts.Navigator,
		auth:     opts.Auth,
		onState:  opts.OnState,
		breaker:  newAPIBreaker(),
	}

	httpClient := &http.Client{Timeout: defaultTimeout}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	httpClient.Jar = c.jar
	c.http = httpClient

	if c.creds == nil {
		c.creds = &MemoryCredentials{}
	}
	if c.notifier == nil {
		c.notifier = LogNotifier{}
	}
	if c.nav == nil {
		c.nav = NewMemoryNavigator("/")
	}
	if c.auth == nil {
		c.auth = &AuthState{}
	}
	if c.onState == nil {
		c.onState = func(RefreshState) {}
	}
	return c
}

func newAPIBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "project-camp-api",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})
}

func (c *Client) Credentials() CredentialStore { return c.creds }
func (c *Client) Auth() *AuthState             { return c.auth }

// payload is a request body that can be replayed for the retry.
type payload struct {
	contentType string
	body        []byte
}

func jsonPayload(v any) (*payload, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return &payload{contentType: "application/json", body: raw}, nil
}

// FileUpload is one file of a multipart request.
type FileUpload struct {
	Name    string
	Content []byte
}

func multipartPayload(fields map[string]string, fileField string, files []FileUpload) (*payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(fileField, f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &payload{contentType: w.FormDataContentType(), body: buf.Bytes()}, nil
}

type response struct {
	status int
	body   []byte
}

func (r *response) decode(out any) error {
	if out == nil {
		return nil
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.body, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func (r *response) apiError() *APIError {
	apiErr := &APIError{StatusCode: r.status}
	var env struct {
		Message string              `json:"message"`
		Errors  []map[string]string `json:"errors"`
	}
	if json.Unmarshal(r.body, &env) == nil {
		apiErr.Message = env.Message
		apiErr.Errors = env.Errors
	}
	return apiErr
}

// send performs one HTTP exchange through the circuit breaker.
func (c *Client) send(ctx context.Context, method, path string, body *payload) (*response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
	}
	if token := c.creds.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		out := &response{status: resp.StatusCode, body: raw}
		if resp.StatusCode >= http.StatusInternalServerError {
			return out, &serverError{status: resp.StatusCode}
		}
		return out, nil
	})

	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return result.(*response), nil
	}
	if err != nil {
		return nil, err
	}
	return result.(*response), nil
}

// do sends a request and, on a 401, refreshes the session once and retries
// once. A second 401 is returned to the caller.
func (c *Client) do(ctx context.Context, method, path string, body *payload, out any) error {
	tokenUsed := c.creds.AccessToken()
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		c.notifier.Error(err)
		return err
	}

	if resp.status == http.StatusUnauthorized && retriable(path) {
		c.onState(StateFailed)
		if err := c.refreshSession(ctx, tokenUsed); err != nil {
			return fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}

		c.onState(StateRetried)
		resp, err = c.send(ctx, method, path, body)
		if err != nil {
			c.notifier.Error(err)
			return err
		}
		if resp.status == http.StatusUnauthorized {
			c.onState(StateFailedFinal)
		} else {
			c.onState(StateSucceeded)
		}
	}

	if resp.status >= http.StatusBadRequest {
		apiErr := resp.apiError()
		c.notifier.Error(apiErr)
		return apiErr
	}
	return resp.decode(out)
}

func retriable(path string) bool {
	return path != refreshPath && path != loginPath
}

var errSessionCleared = errors.New("credentials were cleared by an earlier refresh")

// refreshSession runs at most one refresh per rejected token; callers that
// were rejected with the same token wait for it. When the stored token already
// differs from tokenUsed another refresh finished after this request left, so
// the retry can go straight out.
func (c *Client) refreshSession(ctx context.Context, tokenUsed string) error {
	// Keyed by the rejected token: a caller rejected with the current token
	// must not join a flight that skips the refresh for an older one.
	_, err, _ := c.refresh.Do("refresh:"+tokenUsed, func() (interface{}, error) {
		// Checked inside the flight: a caller arriving just after a flight
		// ended must see the token it stored.
		if current := c.creds.AccessToken(); current != tokenUsed {
			if current == "" {
				return nil, errSessionCleared
			}
			return nil, nil
		}

		c.onState(StateRefreshing)
		// Waiters share this call, so one caller's cancellation must not
		// fail the others.
		resp, err := c.send(context.WithoutCancel(ctx), http.MethodPost, refreshPath, nil)
		if err == nil && resp.status != http.StatusOK {
			err = resp.apiError()
		}
		var out struct {
			AccessToken string `json:"accessToken"`
		}
		if err == nil {
			err = resp.decode(&out)
		}
		if err == nil && out.AccessToken == "" {
			err = errors.New("refresh response carried no access token")
		}
		if err != nil {
			c.expireSession()
			return nil, err
		}
		c.creds.SetAccessToken(out.AccessToken)
		return nil, nil
	})
	return err
}

// expireSession forgets every credential and sends the user to log in.
func (c *Client) expireSession() {
	c.creds.Clear()
	c.jar.Reset()
	c.auth.Clear()
	c.notifier.SessionExpired()
	if c.nav.CurrentPath() != LoginPath {
		c.nav.Redirect(LoginPath)
	}
}
