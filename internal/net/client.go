package net

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/INSANE0777/AIS-GARDEN/internal/api"
	"github.com/INSANE0777/AIS-GARDEN/internal/state"
)

// StatusError is a non-2xx response from the garden server.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("garden server: %d %s", e.Status, e.Message)
}

const (
	reconnectMin = time.Second
	reconnectMax = 30 * time.Second
)

// Client talks to a garden server over HTTP and its live channel.
type Client struct {
	base   *url.URL
	http   *http.Client
	dialer *websocket.Dialer
	log    zerolog.Logger
}

// NewClient returns a client for the server at baseURL, e.g.
// "http://192.168.1.20:8888".
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("server url %q: want http(s)://host[:port]", baseURL)
	}
	return &Client{
		base:   u,
		http:   &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{HandshakeTimeout: timeout, Proxy: http.ProxyFromEnvironment},
		log:    log.With().Str("component", "client").Str("server", u.String()).Logger(),
	}, nil
}

// BaseURL returns the server URL.
func (c *Client) BaseURL() string { return c.base.String() }

// CreateUser registers name and returns the resulting identity.
func (c *Client) CreateUser(ctx context.Context, name string) (state.Identity, error) {
	var user api.User
	if err := c.do(ctx, http.MethodPost, "/api/users", nil, api.CreateUserRequest{Name: name}, &user); err != nil {
		return state.Identity{}, err
	}
	return state.Identity{ID: user.ID, Name: user.Name}, nil
}

// CreateFlower persists a submission and returns the durable flower.
func (c *Client) CreateFlower(ctx context.Context, sub state.Submission) (state.Flower, error) {
	var row api.FlowerRow
	if err := c.do(ctx, http.MethodPost, "/api/flowers", nil, api.NewCreateFlowerRequest(sub), &row); err != nil {
		return state.Flower{}, err
	}
	return row.Flower()
}

// ListFlowers fetches every flower in the given order. Rows that do not
// convert into valid flowers are logged and skipped.
func (c *Client) ListFlowers(ctx context.Context, order api.Order) ([]state.Flower, error) {
	var rows []api.FlowerRow
	q := url.Values{"order": []string{string(order)}}
	if err := c.do(ctx, http.MethodGet, "/api/flowers", q, nil, &rows); err != nil {
		return nil, err
	}
	out := make([]state.Flower, 0, len(rows))
	for _, r := range rows {
		f, err := r.Flower()
		if err != nil {
			c.log.Warn().Err(err).Str("flower_id", r.ID).Msg("skipping invalid flower row")
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Health reports whether the server and its database answer.
func (c *Client) Health(ctx context.Context) error {
	var resp HealthResponse
	return c.do(ctx, http.MethodGet, "/health", nil, nil, &resp)
}

// Subscribe opens the live channel and returns the stream of inserted
// flowers. The first connection is made before Subscribe returns. If it
// later drops, the client reconnects with backoff; inserts made while
// disconnected are not replayed. Malformed events are logged and dropped.
// The channel closes when ctx is done.
func (c *Client) Subscribe(ctx context.Context) (<-chan state.Flower, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan state.Flower, 64)
	go func() {
		defer close(out)
		backoff := reconnectMin
		for {
			c.pump(ctx, conn, out)
			if ctx.Err() != nil {
				return
			}
			for {
				c.log.Warn().Dur("retry_in", backoff).Msg("live channel lost, reconnecting")
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				conn, err = c.dial(ctx)
				if err == nil {
					backoff = reconnectMin
					break
				}
				c.log.Debug().Err(err).Msg("live channel reconnect failed")
				backoff = min(backoff*2, reconnectMax)
			}
		}
	}()
	return out, nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	u := *c.base
	u.Scheme = "ws"
	if c.base.Scheme == "https" {
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/live"

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", u.String(), err)
	}
	c.log.Info().Msg("live channel connected")
	return conn, nil
}

// pump reads events from conn into out until the connection fails or ctx is
// done.
func (c *Client) pump(ctx context.Context, conn *websocket.Conn, out chan<- state.Flower) {
	stop := context.AfterFunc(ctx, func() {
		conn.WriteControl(websocket.CloseMessage, //nolint:errcheck
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		conn.Close()
	})
	defer stop()
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				c.log.Debug().Err(err).Msg("live channel read failed")
			}
			return
		}
		f, err := api.DecodeEvent(data)
		switch {
		case errors.Is(err, api.ErrIgnoredEvent):
			c.log.Debug().Err(err).Msg("ignoring live event")
			continue
		case err != nil:
			c.log.Warn().Err(err).Msg("dropping malformed live event")
			continue
		}
		select {
		case out <- f:
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e api.ErrorResponse
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &StatusError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
