//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-cleanhttp"

	"github.com/oshokin/alarm-clock/internal/config"
)

// maxResponseSize caps how much of a response body is read.
const maxResponseSize = 1 << 20

// Client posts JSON documents to the alarm server.
type Client struct {
	// baseURL is the server root, e.g. http://alarm.local:6000/.
	baseURL *url.URL
	// http is the pooled HTTP client.
	http *http.Client
	// actor is sent in ActorHeader when set.
	actor string

	// callTimeout is the default timeout for individual calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the pooled HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithActor reports the caller identity to the server.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")

	// ErrUnexpectedStatus is returned for any non-2xx response.
	ErrUnexpectedStatus = errors.New("unexpected http status")
)

// Dial prepares a client for the server at address ("host:port" or an http URL).
// No connection is made until the first call.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	if !strings.Contains(address, "://") {
		address = "http://" + address
	}

	baseURL, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("parse server address: %w", err)
	}

	if baseURL.Host == "" {
		return nil, fmt.Errorf("parse server address %q: %w", address, errAddressRequired)
	}

	client := &Client{
		baseURL:     baseURL,
		http:        cleanhttp.DefaultPooledClient(),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	if c == nil || c.http == nil {
		return nil
	}

	c.http.CloseIdleConnections()

	return nil
}

// Post sends body to the endpoint and returns the response body.
func (c *Client) Post(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	request, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.endpointURL(endpoint), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", endpoint, err)
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	if c.actor != "" {
		request.Header.Set(ActorHeader, c.actor)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", endpoint, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(response.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("post %s: %w: %d", endpoint, ErrUnexpectedStatus, response.StatusCode)
	}

	return data, nil
}

// EventsURL returns the websocket URL of the server's event stream.
func (c *Client) EventsURL(secret int64) string {
	u := *c.baseURL

	u.Scheme = "ws"
	if c.baseURL.Scheme == "https" {
		u.Scheme = "wss"
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/events"
	u.RawQuery = url.Values{"secret": []string{strconv.FormatInt(secret, 10)}}.Encode()

	return u.String()
}

// Subscribe opens the server's event stream. The handshake is bounded by the
// call timeout; the returned connection is not.
func (c *Client) Subscribe(ctx context.Context, secret int64) (*websocket.Conn, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	header := http.Header{}
	if c.actor != "" {
		header.Set(ActorHeader, c.actor)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.callTimeout,
	}

	conn, response, err := dialer.DialContext(callCtx, c.EventsURL(secret), header)
	if response != nil && response.Body != nil {
		_ = response.Body.Close()
	}

	if err != nil {
		if response != nil {
			return nil, fmt.Errorf("subscribe: %w: %d", ErrUnexpectedStatus, response.StatusCode)
		}

		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return conn, nil
}

func (c *Client) endpointURL(endpoint string) string {
	return c.baseURL.JoinPath(endpoint).String()
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
