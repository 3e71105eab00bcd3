package cache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedServer accepts one command per connection and answers from a
// canned table, recording every command it sees.
type scriptedServer struct {
	listener net.Listener

	mu       sync.Mutex
	commands [][]string
	values   map[string]string
}

func startScriptedServer(t *testing.T) *scriptedServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &scriptedServer{listener: listener, values: make(map[string]string)}
	go srv.serve()
	t.Cleanup(func() { _ = listener.Close() })
	return srv
}

func (s *scriptedServer) addr() string { return s.listener.Addr().String() }

func (s *scriptedServer) seen() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.commands))
	copy(out, s.commands)
	return out
}

func (s *scriptedServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *scriptedServer) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	cmd, err := readCommand(r)
	if err != nil {
		return
	}

	s.mu.Lock()
	s.commands = append(s.commands, cmd)
	switch strings.ToUpper(cmd[0]) {
	case "PING":
		fmt.Fprint(conn, "+PONG\r\n")
	case "GET":
		if value, ok := s.values[cmd[1]]; ok {
			fmt.Fprintf(conn, "$%d\r\n%s\r\n", len(value), value)
		} else {
			fmt.Fprint(conn, "$-1\r\n")
		}
	case "SET":
		s.values[cmd[1]] = cmd[2]
		fmt.Fprint(conn, "+OK\r\n")
	default:
		fmt.Fprintf(conn, "-ERR unknown command %s\r\n", cmd[0])
	}
	s.mu.Unlock()
}

func readCommand(r *bufio.Reader) ([]string, error) {
	header, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimRight(strings.TrimPrefix(header, "*"), "\r\n"))
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, count)
	for i := 0; i < count; i++ {
		sizeLine, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimRight(strings.TrimPrefix(sizeLine, "$"), "\r\n"))
		if err != nil {
			return nil, err
		}
		buf := make([]byte, size+2)
		if _, err := readFull(r, buf); err != nil {
			return nil, err
		}
		parts = append(parts, string(buf[:size]))
	}
	return parts, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func TestValkeyProviderRoundTrip(t *testing.T) {
	srv := startScriptedServer(t)
	provider, err := NewValkeyProvider(ValkeyConfig{Addr: srv.addr(), Namespace: "acme"})
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	_, err = provider.Get(ctx, "topology:service-graph")
	assert.True(t, errors.Is(err, ErrCacheMiss), "absent key should miss, got %v", err)

	require.NoError(t, provider.Set(ctx, "topology:service-graph", []byte(`{"web":["api"]}`), time.Minute))

	payload, err := provider.Get(ctx, "topology:service-graph")
	require.NoError(t, err)
	assert.JSONEq(t, `{"web":["api"]}`, string(payload))
}

func TestValkeyProviderNamespacesKeys(t *testing.T) {
	srv := startScriptedServer(t)
	provider, err := NewValkeyProvider(ValkeyConfig{Addr: srv.addr(), Namespace: "acme"})
	require.NoError(t, err)

	require.NoError(t, provider.Set(context.Background(), "patterns:latest", []byte("x"), 0))

	var setSeen []string
	for _, cmd := range srv.seen() {
		if strings.EqualFold(cmd[0], "SET") {
			setSeen = cmd
		}
	}
	require.NotEmpty(t, setSeen)
	assert.Equal(t, "acme:patterns:latest", setSeen[1])
}

func TestValkeyProviderSetSendsTTLMillis(t *testing.T) {
	srv := startScriptedServer(t)
	provider, err := NewValkeyProvider(ValkeyConfig{Addr: srv.addr()})
	require.NoError(t, err)

	require.NoError(t, provider.Set(context.Background(), "k", []byte("v"), 1500*time.Millisecond))

	for _, cmd := range srv.seen() {
		if strings.EqualFold(cmd[0], "SET") {
			require.Len(t, cmd, 5)
			assert.Equal(t, "PX", cmd[3])
			assert.Equal(t, "1500", cmd[4])
			return
		}
	}
	t.Fatal("no SET command reached the server")
}

func TestValkeyConfigDefaults(t *testing.T) {
	cfg := ValkeyConfig{Addr: "localhost:6379"}
	applyDefaults(&cfg)
	assert.Equal(t, defaultNamespace, cfg.Namespace)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, 1, cfg.MaxRetries)
}

func TestNewValkeyProviderRequiresAddr(t *testing.T) {
	_, err := NewValkeyProvider(ValkeyConfig{})
	require.Error(t, err)
}
