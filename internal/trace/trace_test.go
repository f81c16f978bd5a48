package trace

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// socketPath stays short; unix socket paths are limited to ~100 bytes.
func socketPath(t *testing.T) string {
	dir, err := os.MkdirTemp("", "nt")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "t.sock")
}

func TestSendAndServe(t *testing.T) {
	path := socketPath(t)
	l, err := Bind(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx, out) }()

	require.NoError(t, Send(path, KindPrompt, "hello\nworld"))
	require.NoError(t, Send(path, KindResponse, "hi"))

	assert.Eventually(t, func() bool {
		return out.String() == "prompt\nhello\nworld\nresponse\nhi\n"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "socket file should be removed after serve")
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab", truncate("abé", 3))
	assert.Equal(t, "abé", truncate("abé", 4))
	assert.Equal(t, "", truncate("日本", 2))

	long := strings.Repeat("a", maxDatagram-1) + "ñ"
	got := truncate(long, maxDatagram)
	assert.Len(t, got, maxDatagram-1)
	assert.True(t, utf8.ValidString(got))
}

func TestSendWithoutListener(t *testing.T) {
	err := Send(socketPath(t), KindError, "nobody home")
	assert.Error(t, err)
}

func TestBindRemovesStaleSocket(t *testing.T) {
	path := socketPath(t)

	stale, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	require.NoError(t, err)
	require.NoError(t, stale.Close())

	_, err = os.Lstat(path)
	require.NoError(t, err, "stale socket file should still exist")

	l, err := Bind(path)
	require.NoError(t, err)
	l.conn.Close()
	os.Remove(path)
}

func TestBindRefusesRegularFile(t *testing.T) {
	path := socketPath(t)
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0o600))

	_, err := Bind(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a socket")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestListenStopsOnCancel(t *testing.T) {
	path := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Listen(ctx, path, &syncBuffer{}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop")
	}
}
