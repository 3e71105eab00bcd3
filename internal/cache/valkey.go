package cache

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

// ValkeyConfig holds connection parameters for a Valkey/Redis-compatible
// server. Namespace is prepended to every key so the engine's entries do
// not collide with other tenants of a shared instance.
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	Namespace    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxRetries   int
	TLS          bool
}

const defaultNamespace = "correlation-engine"

// ValkeyProvider implements Provider against a Valkey server. It holds no
// pooled state: each operation dials, authenticates, runs, and closes,
// which keeps failure handling to a single retry loop.
type ValkeyProvider struct {
	cfg ValkeyConfig
}

// NewValkeyProvider validates the configuration and pings the target so a
// bad address or credential fails at startup rather than on first use.
func NewValkeyProvider(cfg ValkeyConfig) (*ValkeyProvider, error) {
	if cfg.Addr == "" {
		return nil, errors.New("valkey addr is required")
	}
	applyDefaults(&cfg)

	p := &ValkeyProvider{cfg: cfg}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := p.ping(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// Get fetches bytes by key, returning ErrCacheMiss when the key is absent.
func (p *ValkeyProvider) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := p.do(ctx, func(c *respConn) error {
		if err := c.send("GET", p.namespaced(key)); err != nil {
			return err
		}
		rep, err := c.receive()
		if err != nil {
			return err
		}
		switch rep.kind {
		case respNil:
			return ErrCacheMiss
		case respBulk:
			payload = rep.data
			return nil
		default:
			return fmt.Errorf("unexpected GET reply kind %q", rep.kind)
		}
	})
	return payload, err
}

// Set stores bytes under the key with the provided TTL. A non-positive TTL
// stores the value without expiry.
func (p *ValkeyProvider) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.do(ctx, func(c *respConn) error {
		args := []string{p.namespaced(key), string(value)}
		if ttl > 0 {
			args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
		}
		if err := c.send("SET", args...); err != nil {
			return err
		}
		rep, err := c.receive()
		if err != nil {
			return err
		}
		if rep.kind != respSimple || string(rep.data) != "OK" {
			return fmt.Errorf("unexpected SET reply: %s", rep.data)
		}
		return nil
	})
}

// Close releases resources. The provider dials per operation, so there is
// nothing to tear down.
func (p *ValkeyProvider) Close() error { return nil }

func (p *ValkeyProvider) namespaced(key string) string {
	return p.cfg.Namespace + ":" + key
}

func (p *ValkeyProvider) ping(ctx context.Context) error {
	return p.do(ctx, func(c *respConn) error {
		if err := c.send("PING"); err != nil {
			return err
		}
		rep, err := c.receive()
		if err != nil {
			return err
		}
		if rep.kind != respSimple || string(rep.data) != "PONG" {
			return fmt.Errorf("unexpected PING reply: %s", rep.data)
		}
		return nil
	})
}

// do runs fn on a fresh authenticated connection, retrying transient
// network failures with exponential backoff up to MaxRetries attempts.
func (p *ValkeyProvider) do(ctx context.Context, fn func(*respConn) error) error {
	attempts := p.cfg.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := p.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) || attempt == attempts-1 {
			return err
		}
		time.Sleep(time.Duration(1<<attempt) * 25 * time.Millisecond)
	}
	return lastErr
}

func (p *ValkeyProvider) attempt(ctx context.Context, fn func(*respConn) error) error {
	c, err := p.dial(ctx)
	if err != nil {
		return err
	}
	defer c.close()
	if err := p.handshake(c); err != nil {
		return err
	}
	return fn(c)
}

func (p *ValkeyProvider) dial(ctx context.Context) (*respConn, error) {
	dialer := net.Dialer{Timeout: dialBudget(ctx, p.cfg.DialTimeout)}

	var (
		conn net.Conn
		err  error
	)
	if p.cfg.TLS {
		serverName := p.cfg.Addr
		if host, _, splitErr := net.SplitHostPort(p.cfg.Addr); splitErr == nil {
			serverName = host
		}
		conn, err = tls.DialWithDialer(&dialer, "tcp", p.cfg.Addr, &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: serverName,
		})
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", p.cfg.Addr)
	}
	if err != nil {
		return nil, err
	}
	return &respConn{
		conn:         conn,
		r:            bufio.NewReader(conn),
		w:            bufio.NewWriter(conn),
		readTimeout:  p.cfg.ReadTimeout,
		writeTimeout: p.cfg.WriteTimeout,
	}, nil
}

// handshake authenticates and selects the configured database before the
// connection carries any command.
func (p *ValkeyProvider) handshake(c *respConn) error {
	if p.cfg.Password != "" {
		args := []string{p.cfg.Password}
		if p.cfg.Username != "" {
			args = []string{p.cfg.Username, p.cfg.Password}
		}
		if err := c.expectOK("AUTH", args...); err != nil {
			return fmt.Errorf("valkey auth: %w", err)
		}
	}
	if p.cfg.DB > 0 {
		if err := c.expectOK("SELECT", strconv.Itoa(p.cfg.DB)); err != nil {
			return fmt.Errorf("valkey select: %w", err)
		}
	}
	return nil
}

func applyDefaults(cfg *ValkeyConfig) {
	if cfg.Namespace == "" {
		cfg.Namespace = defaultNamespace
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 500 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 500 * time.Millisecond
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
}

func dialBudget(ctx context.Context, d time.Duration) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return time.Millisecond
		}
		if d == 0 || remaining < d {
			return remaining
		}
	}
	if d <= 0 {
		return time.Millisecond
	}
	return d
}

func retryable(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// respConn speaks the subset of RESP the provider needs: array-of-bulk
// commands out, simple/bulk/nil/error replies in.
type respConn struct {
	conn         net.Conn
	r            *bufio.Reader
	w            *bufio.Writer
	readTimeout  time.Duration
	writeTimeout time.Duration
}

type respKind byte

const (
	respSimple respKind = '+'
	respBulk   respKind = '$'
	respNil    respKind = '_'
)

type respReply struct {
	kind respKind
	data []byte
}

func (c *respConn) close() { _ = c.conn.Close() }

func (c *respConn) send(command string, args ...string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	fmt.Fprintf(c.w, "*%d\r\n", len(args)+1)
	for _, part := range append([]string{command}, args...) {
		fmt.Fprintf(c.w, "$%d\r\n%s\r\n", len(part), part)
	}
	return c.w.Flush()
}

func (c *respConn) expectOK(command string, args ...string) error {
	if err := c.send(command, args...); err != nil {
		return err
	}
	rep, err := c.receive()
	if err != nil {
		return err
	}
	if rep.kind != respSimple || !strings.EqualFold(string(rep.data), "OK") {
		return fmt.Errorf("unexpected reply: %s", rep.data)
	}
	return nil
}

func (c *respConn) receive() (respReply, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return respReply{}, err
	}
	prefix, err := c.r.ReadByte()
	if err != nil {
		return respReply{}, err
	}
	switch prefix {
	case '+', ':':
		line, err := c.line()
		return respReply{kind: respSimple, data: line}, err
	case '-':
		line, err := c.line()
		if err != nil {
			return respReply{}, err
		}
		return respReply{}, errors.New(string(line))
	case '$':
		line, err := c.line()
		if err != nil {
			return respReply{}, err
		}
		size, err := strconv.Atoi(string(line))
		if err != nil {
			return respReply{}, err
		}
		if size < 0 {
			return respReply{kind: respNil}, nil
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(c.r, buf); err != nil {
			return respReply{}, err
		}
		if buf[size] != '\r' || buf[size+1] != '\n' {
			return respReply{}, errors.New("malformed bulk reply terminator")
		}
		return respReply{kind: respBulk, data: buf[:size]}, nil
	default:
		return respReply{}, fmt.Errorf("unexpected RESP prefix %q", prefix)
	}
}

func (c *respConn) line() ([]byte, error) {
	line, err := c.r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
