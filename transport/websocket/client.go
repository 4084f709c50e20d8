package websocket

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/gorilla/websocket"

	"github.com/yola1107/fadu/library/xgo"
)

var (
	errClosedRequest = errors.New("client: session not established")
	errMaxRetries    = errors.New("client: max retries reached")
	errInvalidURL    = errors.New("client: invalid URL")
)

// MessageHandler receives every text frame pushed by the server.
type MessageHandler func(data []byte)

type ClientOption func(*clientOptions)

func WithTlsConf(tlsConfig *tls.Config) ClientOption {
	return func(o *clientOptions) { o.tlsConf = tlsConfig }
}

func WithHeartbeat(d, i, w time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.session.ReadDeadline, o.session.PingInterval, o.session.WriteTimeout = d, i, w
	}
}

func WithSentChanSize(size int) ClientOption {
	return func(o *clientOptions) { o.session.SendChanSize = size }
}

func WithEndpoint(endpoint string) ClientOption {
	return func(o *clientOptions) { o.endpoint = endpoint }
}

func WithConnectFunc(fn func(*Session)) ClientOption {
	return func(o *clientOptions) { o.connectFunc = fn }
}

func WithDisconnectFunc(disconnectFunc func(*Session)) ClientOption {
	return func(o *clientOptions) { o.disconnectFunc = disconnectFunc }
}

func WithMessageHandler(h MessageHandler) ClientOption {
	return func(o *clientOptions) { o.messageHandler = h }
}

// WithRetryPolicy sets the dial backoff. maxAttempt 0 disables retries, a negative value retries forever.
func WithRetryPolicy(b, m time.Duration, maxAttempt int32) ClientOption {
	return func(o *clientOptions) {
		o.retryPolicy.baseDelay = b
		o.retryPolicy.maxDelay = m
		o.retryPolicy.maxAttempt = maxAttempt
	}
}

type clientOptions struct {
	ctx            context.Context
	tlsConf        *tls.Config
	endpoint       string
	connectFunc    func(*Session)
	disconnectFunc func(*Session)
	messageHandler MessageHandler
	session        *SessionConfig
	retryPolicy    *retryPolicy // 重连
}

type retryPolicy struct {
	baseDelay  time.Duration
	maxDelay   time.Duration
	maxAttempt int32
}

// Client is a websocket client speaking JSON text frames.
type Client struct {
	opts       *clientOptions
	url        *url.URL
	mu         sync.Mutex
	session    *Session
	closing    bool
	retryCount int32
}

// NewClient dials the endpoint, retrying per the retry policy.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	options := &clientOptions{
		ctx:      ctx,
		endpoint: "ws://127.0.0.1:3102",
		session: &SessionConfig{
			WriteTimeout: 10 * time.Second,
			PingInterval: 10 * time.Second,
			ReadDeadline: 60 * time.Second,
			SendChanSize: 128,
		},
		retryPolicy: &retryPolicy{
			baseDelay:  time.Second,
			maxDelay:   15 * time.Second,
			maxAttempt: 0,
		},
	}
	for _, o := range opts {
		o(options)
	}

	u, err := parseUrl(options.endpoint, options.tlsConf == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidURL, err)
	}

	c := &Client{
		opts: options,
		url:  u,
	}
	if err := c.connect(); err != nil {
		return nil, err
	}
	return c, nil
}

func parseUrl(endpoint string, insecure bool) (*url.URL, error) {
	if !strings.Contains(endpoint, "://") {
		if insecure {
			endpoint = "ws://" + endpoint
		} else {
			endpoint = "wss://" + endpoint
		}
	}
	return url.Parse(endpoint)
}

func (c *Client) IsAlive() bool {
	if c == nil {
		return false
	}
	sess := c.GetSession()
	return sess != nil && !sess.Closed()
}

func (c *Client) GetSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

func (c *Client) canRetry(attempt int32) bool {
	maxAttempt := c.opts.retryPolicy.maxAttempt
	if maxAttempt < 0 {
		return true // 无限重试
	}
	return attempt < maxAttempt
}

func (c *Client) connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.opts.session.WriteTimeout,
		TLSClientConfig:  c.opts.tlsConf,
	}

	for {
		select {
		case <-c.opts.ctx.Done():
			return c.opts.ctx.Err()
		default:
		}

		conn, _, err := dialer.DialContext(c.opts.ctx, c.url.String(), nil)
		if err == nil {
			c.mu.Lock()
			c.retryCount = 0
			c.mu.Unlock()
			NewSession(c, conn, c.opts.session, nil)
			return nil
		}

		c.mu.Lock()
		c.retryCount++
		curr := c.retryCount
		c.mu.Unlock()
		if !c.canRetry(curr) {
			return fmt.Errorf("%w: %d attempts: %v", errMaxRetries, curr, err)
		}

		delay := c.calculateBackoff(curr)
		log.Warnf("reconnecting to %q. attempt=%d retrying in %v: %v", c.url, curr, delay, err)

		select {
		case <-time.After(delay):
		case <-c.opts.ctx.Done():
			return c.opts.ctx.Err()
		}
	}
}

// 退避时间: baseDelay * 1.5^(attempt-1), 上限 maxDelay, 抖动 ±10%
func (c *Client) calculateBackoff(attempt int32) time.Duration {
	backoff := float64(c.opts.retryPolicy.baseDelay) * math.Pow(1.5, float64(attempt-1))
	backoff = math.Min(backoff, float64(c.opts.retryPolicy.maxDelay))
	return time.Duration(backoff * (0.9 + 0.2*rand.Float64()))
}

func (c *Client) OnSessionOpen(sess *Session) error {
	c.mu.Lock()
	c.session = sess
	c.mu.Unlock()
	if c.opts.connectFunc != nil {
		c.opts.connectFunc(sess)
	}
	return nil
}

func (c *Client) OnSessionClose(sess *Session) {
	if c.opts.disconnectFunc != nil {
		c.opts.disconnectFunc(sess)
	}

	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()
	if !closing && c.opts.retryPolicy.maxAttempt != 0 {
		go func() {
			if err := c.connect(); err != nil {
				log.Warnf("reconnect to %q failed: %v", c.url, err)
			}
		}()
	}
}

// Send marshals msg as JSON and queues it.
func (c *Client) Send(msg any) error {
	sess := c.GetSession()
	if sess == nil || sess.Closed() {
		return errClosedRequest
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return sess.Send(data)
}

// DispatchMessage 消息分发
func (c *Client) DispatchMessage(_ *Session, data []byte) error {
	if c.opts.messageHandler != nil {
		safeCall(func() { c.opts.messageHandler(data) })
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	c.closing = true
	s := c.session
	c.session = nil
	c.mu.Unlock()

	if s != nil {
		s.Close(false)
	}
}

// safeCall 安全执行回调
func safeCall(fn func()) {
	defer xgo.RecoverFromError(nil)
	if fn != nil {
		fn()
	}
}
