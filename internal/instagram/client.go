package instagram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/salmonumbrella/instagram-cli/internal/debug"
	"github.com/salmonumbrella/instagram-cli/internal/dispatch"
	clierrors "github.com/salmonumbrella/instagram-cli/internal/errors"
)

const (
	defaultBaseURL = "https://api.instagram.com/v1"
	defaultTimeout = 30 * time.Second
)

// TokenSource supplies the access token for each request. An empty token
// is sent as an empty access_token parameter.
type TokenSource interface {
	AccessToken() string
}

// StaticToken is a fixed TokenSource.
type StaticToken string

// AccessToken returns the token.
func (t StaticToken) AccessToken() string { return string(t) }

// Client is the Instagram API client
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	dispatcher dispatch.Dispatcher
}

// NewClient creates a client that reads its token from tokens on every
// request. Async completions run on dispatch.Main until WithDispatcher is
// used.
func NewClient(tokens TokenSource) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:    defaultBaseURL,
		tokens:     tokens,
		dispatcher: dispatch.Main(),
	}
}

// WithHTTPClient sets a custom HTTP client
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithBaseURL sets a custom base URL (useful for testing)
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithDispatcher sets where async completion callbacks run. A nil d
// restores dispatch.Main. Pass dispatch.Inline{} to run callbacks on the
// request goroutines instead.
func (c *Client) WithDispatcher(d dispatch.Dispatcher) *Client {
	if d == nil {
		d = dispatch.Main()
	}
	c.dispatcher = d
	return c
}

// WithDebug enables debug mode for HTTP request/response logging
func (c *Client) WithDebug() *Client {
	return c.WithDebugOutput(os.Stderr)
}

// WithDebugOutput enables debug mode for HTTP request/response logging to the provided writer.
func (c *Client) WithDebugOutput(w io.Writer) *Client {
	baseTransport := c.httpClient.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}

	c.httpClient.Transport = debug.NewDebugTransport(baseTransport, w)
	return c
}

// Clone returns a shallow copy of c that can be reconfigured without
// affecting c. The HTTP client is shared.
func (c *Client) Clone() *Client {
	clone := *c
	return &clone
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do builds, logs and sends a request and returns the raw body. Errors
// from the transport are returned unchanged.
func (c *Client) do(ctx context.Context, spec RequestSpec) ([]byte, error) {
	req, err := BuildRequest(ctx, c.baseURL, c.tokens.AccessToken(), spec)
	if err != nil {
		return nil, err
	}

	requestID := ulid.Make().String()
	slog.Info("instagram request",
		"request_id", requestID,
		"method", req.Method,
		"url", debug.RedactURL(req.URL.String()),
		"params", withoutToken(spec.Parameters))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Debug("instagram request failed", "request_id", requestID, "error", err)
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	slog.Debug("instagram response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start).String())
	return body, nil
}

// Request sends the described request and decodes data into T.
//
// The result follows the envelope: data present gives (data, nil); else an
// error message gives *InvalidRequestError; else (nil, nil). A body that
// does not decode gives *DecodingError.
func Request[T any](ctx context.Context, c *Client, spec RequestSpec) (*T, error) {
	body, err := c.do(ctx, spec)
	if err != nil {
		return nil, err
	}
	var env Envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, clierrors.NewDecodingError(err)
	}
	return env.Result()
}

// RawRequest sends the described request and returns the whole envelope
// with data left untyped. Meta is not interpreted.
func RawRequest(ctx context.Context, c *Client, spec RequestSpec) (*RawEnvelope, error) {
	body, err := c.do(ctx, spec)
	if err != nil {
		return nil, err
	}
	var env RawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, clierrors.NewDecodingError(err)
	}
	return &env, nil
}

// RawJSON sends the described request and returns the response body as a Value.
func RawJSON(ctx context.Context, c *Client, spec RequestSpec) (Value, error) {
	body, err := c.do(ctx, spec)
	if err != nil {
		return Value{}, err
	}
	v, err := ParseValue(body)
	if err != nil {
		return Value{}, clierrors.NewDecodingError(err)
	}
	return v, nil
}

// RequestAsync runs Request on its own goroutine and posts the outcome to
// the client's dispatcher.
func RequestAsync[T any](ctx context.Context, c *Client, spec RequestSpec, onSuccess func(*T), onFailure func(error)) {
	go func() {
		data, err := Request[T](ctx, c, spec)
		c.complete(func() {
			if err != nil {
				if onFailure != nil {
					onFailure(err)
				}
				return
			}
			if onSuccess != nil {
				onSuccess(data)
			}
		})
	}()
}

// RawRequestAsync runs RawRequest on its own goroutine and posts the outcome
// to the client's dispatcher.
func RawRequestAsync(ctx context.Context, c *Client, spec RequestSpec, onSuccess func(*RawEnvelope), onFailure func(error)) {
	go func() {
		env, err := RawRequest(ctx, c, spec)
		c.complete(func() {
			if err != nil {
				if onFailure != nil {
					onFailure(err)
				}
				return
			}
			if onSuccess != nil {
				onSuccess(env)
			}
		})
	}()
}

// complete posts fn to the dispatcher. A dispatcher that refuses work,
// such as a closed Queue, gets fn run on the calling goroutine instead so
// the caller still hears back.
func (c *Client) complete(fn func()) {
	if !c.dispatcher.Post(fn) {
		slog.Debug("instagram dispatcher refused completion, running inline")
		fn()
	}
}
