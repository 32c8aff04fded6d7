// Package transport is the duplex channel to the route optimizer: a single
// WebSocket that carries start commands out and streams solution updates back.
//
// The connection is opened lazily by the first Send and reopened by the next
// Send after any read or write failure. Redials are paced so a server that
// keeps dropping the socket is not hammered.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vanderheijden86/tspview/pkg/debug"
	"github.com/vanderheijden86/tspview/pkg/model"
	"github.com/vanderheijden86/tspview/pkg/result"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the optimizer's genetic-algorithm socket.
const DefaultEndpoint = "ws://localhost:8000/ws/genetic"

// Defaults for client tuning.
const (
	DefaultBuffer           = 16
	DefaultRedialInterval   = time.Second
	DefaultHandshakeTimeout = 10 * time.Second
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport: client closed")

// Option configures a Client.
type Option func(*Client)

// WithDialer replaces the websocket dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		if d != nil {
			c.dialer = d
		}
	}
}

// WithHolder mirrors every decoded response into h.
func WithHolder(h *result.Holder[model.Response]) Option {
	return func(c *Client) { c.holder = h }
}

// WithBuffer sets the capacity of the Results channel.
func WithBuffer(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.buffer = n
		}
	}
}

// WithRedialInterval sets the minimum spacing between dial attempts.
func WithRedialInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// Client is a lazily connected optimizer session.
type Client struct {
	url     string
	session uuid.UUID
	dialer  *websocket.Dialer
	limiter *rate.Limiter
	holder  *result.Holder[model.Response]
	buffer  int
	results chan model.Response

	mu     sync.Mutex // guards conn and closed; held across dial and write
	conn   *websocket.Conn
	closed bool

	readers   sync.WaitGroup
	closeOnce sync.Once
}

// NewClient returns a client for url. No connection is made until Send.
func NewClient(url string, opts ...Option) *Client {
	if url == "" {
		url = DefaultEndpoint
	}
	c := &Client{
		url:     url,
		session: uuid.New(),
		dialer:  &websocket.Dialer{HandshakeTimeout: DefaultHandshakeTimeout},
		limiter: rate.NewLimiter(rate.Every(DefaultRedialInterval), 1),
		buffer:  DefaultBuffer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.results = make(chan model.Response, c.buffer)
	return c
}

// Endpoint returns the socket URL.
func (c *Client) Endpoint() string { return c.url }

// Session returns the id used to correlate this client's log lines.
func (c *Client) Session() string { return c.session.String() }

// Results delivers decoded responses. When the consumer falls behind, the
// oldest pending response is discarded. The channel closes after Close.
func (c *Client) Results() <-chan model.Response { return c.results }

// Connected reports whether a socket is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Start submits cities with params as a start command.
func (c *Client) Start(ctx context.Context, cities []model.City, params model.SolverParams) error {
	req, err := model.NewStartRequest(cities, params)
	if err != nil {
		return err
	}
	return c.Send(ctx, req)
}

// Send encodes v as JSON and writes it as one text frame, dialing first when
// there is no open connection.
func (c *Client) Send(ctx context.Context, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.conn == nil {
		if err := c.dialLocked(ctx); err != nil {
			return err
		}
	}

	conn := c.conn
	deadline, _ := ctx.Deadline()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		debug.Log("transport %s: write failed: %v", c.short(), err)
		c.conn = nil
		_ = conn.Close()
		return fmt.Errorf("send: %w", err)
	}
	debug.Log("transport %s: sent %d bytes", c.short(), len(payload))
	return nil
}

func (c *Client) dialLocked(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	debug.Log("transport %s: dialing %s", c.short(), c.url)
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.conn = conn
	c.readers.Add(1)
	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.readers.Done()
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			debug.Log("transport %s: read loop ended: %v", c.short(), err)
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			_ = conn.Close()
			return
		}
		if typ != websocket.TextMessage {
			continue
		}
		resp, err := model.DecodeResponse(data)
		if err != nil {
			debug.Log("transport %s: skipping undecodable frame (%d bytes): %v", c.short(), len(data), err)
			continue
		}
		debug.Log("transport %s: received generation %d", c.short(), resp.Generation)
		c.publish(resp)
	}
}

func (c *Client) publish(resp model.Response) {
	if c.holder != nil {
		c.holder.Set(resp)
	}
	for {
		select {
		case c.results <- resp:
			return
		default:
		}
		select {
		case <-c.results:
		default:
		}
	}
}

// Close sends a close frame, shuts the socket and waits for the read loop.
// It is safe to call more than once.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		if conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			err = conn.Close()
		}
		c.readers.Wait()
		close(c.results)
		debug.Log("transport %s: closed", c.short())
	})
	return err
}

func (c *Client) short() string { return c.Session()[:8] }
