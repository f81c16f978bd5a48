// Package trace is a best-effort side channel for watching prompts and
// responses from another terminal. Senders write unix datagrams of the form
// "kind\npayload"; `netero trace` binds the socket and prints them.
package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"unicode/utf8"

	"netero/internal/logging"
)

// DefaultSocket is used when no socket path is configured.
const DefaultSocket = "/tmp/netero.trace.sock"

// Event kinds sent by the completion layer.
const (
	KindPrompt   = "prompt"
	KindResponse = "response"
	KindError    = "error"
)

const maxDatagram = 64 * 1024

// Send delivers one event. Delivery is best effort: with no listener bound the
// datagram is dropped and the error is only useful for debug logging.
func Send(socket, kind, payload string) error {
	if socket == "" {
		socket = DefaultSocket
	}
	conn, err := net.DialUnix("unixgram", nil, &net.UnixAddr{Name: socket, Net: "unixgram"})
	if err != nil {
		return fmt.Errorf("dial trace socket: %w", err)
	}
	defer conn.Close()

	msg := truncate(kind+"\n"+payload, maxDatagram)
	if _, err := conn.Write([]byte(msg)); err != nil {
		return fmt.Errorf("send trace event: %w", err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Listener owns a bound trace socket.
type Listener struct {
	path string
	conn *net.UnixConn
}

// Bind removes a stale socket at path and binds a fresh one. A non-socket
// file at path is left alone and reported.
func Bind(path string) (*Listener, error) {
	if path == "" {
		path = DefaultSocket
	}
	if info, err := os.Lstat(path); err == nil {
		if info.Mode()&os.ModeSocket == 0 {
			return nil, fmt.Errorf("trace socket %s exists and is not a socket", path)
		}
		logging.TraceDebug("removing stale trace socket %s", path)
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove stale trace socket: %w", err)
		}
	}

	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, fmt.Errorf("bind trace socket: %w", err)
	}
	return &Listener{path: path, conn: conn}, nil
}

// Path returns the bound socket path.
func (l *Listener) Path() string { return l.path }

// Serve prints every received event to w until ctx is canceled. The socket
// file is removed on return.
func (l *Listener) Serve(ctx context.Context, w io.Writer) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			l.conn.Close()
		case <-stop:
		}
	}()
	defer func() {
		l.conn.Close()
		os.Remove(l.path)
	}()

	buf := make([]byte, maxDatagram)
	for {
		n, _, err := l.conn.ReadFromUnix(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("read trace socket: %w", err)
		}
		if _, err := fmt.Fprintf(w, "%s\n", buf[:n]); err != nil {
			return err
		}
	}
}

// Listen binds socket and serves until ctx is canceled.
func Listen(ctx context.Context, socket string, w io.Writer) error {
	l, err := Bind(socket)
	if err != nil {
		return err
	}
	logging.TraceDebug("trace listener bound on %s", l.Path())
	return l.Serve(ctx, w)
}
