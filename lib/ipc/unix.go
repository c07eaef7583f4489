// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/workbench/lib/codec"
	"github.com/bureau-foundation/workbench/lib/netutil"
)

// Listener accepts renderer connections on a unix socket.
type Listener struct {
	path     string
	listener net.Listener
	logger   *slog.Logger
}

// Listen removes any stale socket at path and starts listening. The
// socket is created with mode 0600.
func Listen(path string, logger *slog.Logger) (*Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", path, err)
	}
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restricting socket %s: %w", path, err)
	}
	return &Listener{path: path, listener: listener, logger: logger}, nil
}

// Path returns the socket path.
func (l *Listener) Path() string { return l.path }

// Serve hands every accepted connection to accept until ctx is
// cancelled. accept must not block. The socket file is removed on
// return.
func (l *Listener) Serve(ctx context.Context, accept func(Port)) error {
	defer os.Remove(l.path)

	stop := context.AfterFunc(ctx, func() { l.listener.Close() })
	defer stop()

	l.logger.Info("listening for renderers", "path", l.path)
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Error("accept failed", "error", err)
			continue
		}
		port, err := newStreamPort(conn)
		if err != nil {
			l.logger.Warn("rejecting connection", "error", err)
			conn.Close()
			continue
		}
		l.logger.Info("renderer connected", "peer", port.Peer(), "pid", port.pid)
		accept(port)
	}
}

// Close stops the listener. Serve returns once its accept loop exits.
func (l *Listener) Close() error {
	return l.listener.Close()
}

// Dial connects to the socket at path.
func Dial(ctx context.Context, path string) (Port, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", path, err)
	}
	port, err := newStreamPort(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return port, nil
}

// streamPort is a Port over a unix stream connection.
type streamPort struct {
	peer string
	pid  int32
	conn net.Conn

	sendMu  sync.Mutex
	encoder *codec.Encoder
	decoder *codec.Decoder

	closeOnce sync.Once
	closed    chan struct{}
}

func newStreamPort(conn net.Conn) (*streamPort, error) {
	pid, err := peerPID(conn)
	if err != nil {
		return nil, err
	}
	return &streamPort{
		peer:    fmt.Sprintf("unix:%d:%s", pid, uuid.NewString()),
		pid:     pid,
		conn:    conn,
		encoder: codec.NewEncoder(conn),
		decoder: codec.NewDecoder(conn),
		closed:  make(chan struct{}),
	}, nil
}

// peerPID reads the pid of the process on the other end of a unix
// socket.
func peerPID(conn net.Conn) (int32, error) {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return 0, fmt.Errorf("peer credentials: %T is not a unix connection", conn)
	}
	raw, err := unixConn.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("peer credentials: %w", err)
	}
	var credentials *unix.Ucred
	var credentialsErr error
	if err := raw.Control(func(fd uintptr) {
		credentials, credentialsErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return 0, fmt.Errorf("peer credentials: %w", err)
	}
	if credentialsErr != nil {
		return 0, fmt.Errorf("peer credentials: %w", credentialsErr)
	}
	return credentials.Pid, nil
}

func (p *streamPort) Peer() string { return p.peer }

func (p *streamPort) Send(v any) error {
	p.sendMu.Lock()
	defer p.sendMu.Unlock()
	if err := p.encoder.Encode(v); err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *streamPort) Receive(v any) error {
	if err := p.decoder.Decode(v); err != nil {
		return p.translate(err)
	}
	return nil
}

func (p *streamPort) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.closed)
		err = p.conn.Close()
	})
	return err
}

func (p *streamPort) translate(err error) error {
	select {
	case <-p.closed:
		return ErrClosed
	default:
	}
	if netutil.IsPeerGone(err) {
		return io.EOF
	}
	return err
}
