package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEchoServer 启动一个回显服务器
func newEchoServer(t *testing.T, u *Upgrader) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := u.Upgrade(w, r)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != TextMessage {
				continue
			}
			if err := conn.WriteText(data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestUpgradeEcho(t *testing.T) {
	metrics := &CounterMetrics{}
	u, err := NewUpgraderWithOptions(WithMetrics(metrics))
	require.NoError(t, err)
	srv := newEchoServer(t, u)

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)

	// 二进制帧被忽略，只回显文本帧
	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, []byte{1, 2}))
	require.NoError(t, client.WriteMessage(websocket.TextMessage, []byte("hello")))

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, data, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, "hello", string(data))

	assert.Equal(t, int64(1), metrics.Snapshot().Active)
	require.NoError(t, client.Close())

	assert.Eventually(t, func() bool {
		return metrics.Snapshot().Active == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, uint64(1), metrics.Snapshot().Total)
}

func TestUpgradeRejectsPlainHTTP(t *testing.T) {
	metrics := &CounterMetrics{}
	u, err := NewUpgraderWithOptions(WithMetrics(metrics))
	require.NoError(t, err)
	srv := newEchoServer(t, u)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, uint64(1), metrics.Snapshot().UpgradeFailures)
}

func TestOriginChecks(t *testing.T) {
	tests := []struct {
		name   string
		opts   []Option
		origin string
		wantOK bool
	}{
		{name: "default allows missing origin", origin: "", wantOK: true},
		{name: "default rejects foreign origin", origin: "https://evil.example", wantOK: false},
		{name: "whitelist allows listed", opts: []Option{WithCheckOriginWhitelist([]string{"https://app.example"})}, origin: "https://app.example", wantOK: true},
		{name: "whitelist rejects missing", opts: []Option{WithCheckOriginWhitelist([]string{"https://app.example"})}, origin: "", wantOK: false},
		{name: "allow all", opts: []Option{WithAllowAllOrigins()}, origin: "https://evil.example", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUpgraderWithOptions(tt.opts...)
			require.NoError(t, err)
			srv := newEchoServer(t, u)

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			client, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
			if tt.wantOK {
				require.NoError(t, err)
				client.Close()
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestDefaultCheckOriginSameHost(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://chat.local/ws/ping", nil)
	r.Header.Set("Origin", "http://chat.local")
	assert.True(t, defaultCheckOrigin(r))

	r.Header.Set("Origin", "http://other.local")
	assert.False(t, defaultCheckOrigin(r))
}

func TestWriteAfterClose(t *testing.T) {
	done := make(chan error, 1)
	u, err := NewUpgrader(nil)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := u.Upgrade(w, r)
		if err != nil {
			done <- err
			return
		}
		assert.NoError(t, conn.Close())
		assert.True(t, conn.IsClosed())
		assert.NoError(t, conn.Close())
		done <- conn.WriteText([]byte("late"))
	}))
	defer srv.Close()

	client, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer client.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not finish")
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.ReadBufferSize = 0
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	bad = DefaultConfig()
	bad.WriteTimeout = -time.Second
	assert.ErrorIs(t, bad.Validate(), ErrInvalidConfig)

	_, err := NewUpgraderWithOptions(WithBufferSizes(-1, 1024))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
