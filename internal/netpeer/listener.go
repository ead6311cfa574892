package netpeer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Path is the HTTP path peers dial.
const Path = "/duel"

var (
	ErrListenerClosed = errors.New("listener closed")
	ErrPeerTaken      = errors.New("match already has a peer")
)

// Listener accepts exactly one websocket peer.
type Listener struct {
	ln       net.Listener
	srv      *http.Server
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu    sync.Mutex
	taken bool

	conns     chan *websocket.Conn
	closed    chan struct{}
	closeOnce sync.Once
}

// Listen starts serving the duel endpoint on addr.
func Listen(addr string, logger *log.Logger) (*Listener, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netpeer: cannot listen on %s: %w", addr, err)
	}

	l := &Listener{
		ln:     ln,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  maxFrameSize,
			WriteBufferSize: maxFrameSize,
			// Peers are terminals, not browsers
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns:  make(chan *websocket.Conn, 1),
		closed: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(Path, l.handle)
	l.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := l.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("duel listener stopped", "error", err)
		}
	}()

	logger.Info("waiting for peer", "url", l.URL())
	return l, nil
}

// Addr returns the bound network address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// URL returns the websocket URL a peer should dial.
func (l *Listener) URL() string {
	return "ws://" + l.ln.Addr().String() + Path
}

func (l *Listener) handle(w http.ResponseWriter, r *http.Request) {
	l.mu.Lock()
	if l.taken {
		l.mu.Unlock()
		l.logger.Warn("rejecting extra peer", "remote", r.RemoteAddr)
		http.Error(w, ErrPeerTaken.Error(), http.StatusConflict)
		return
	}
	l.taken = true
	l.mu.Unlock()

	ws, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		l.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		l.mu.Lock()
		l.taken = false
		l.mu.Unlock()
		return
	}

	l.logger.Info("peer connected", "remote", r.RemoteAddr)
	select {
	case l.conns <- ws:
	case <-l.closed:
		_ = ws.Close() //nolint:errcheck // listener is shutting down
	}
}

// Accept waits for the peer to connect.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	select {
	case ws := <-l.conns:
		return newConn(ws, l.logger), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.closed:
		return nil, ErrListenerClosed
	}
}

// Close stops accepting peers. An already accepted Conn stays open.
func (l *Listener) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closed)
		err = l.srv.Close()
	})
	return err
}

// PeerURL completes a partial peer address such as "host:7777" into a
// websocket URL. Full URLs are returned unchanged.
func PeerURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr
	}
	rest := addr[strings.Index(addr, "://")+3:]
	if !strings.Contains(rest, "/") {
		addr += Path
	}
	return addr
}

// Dial connects to a listening peer.
func Dial(ctx context.Context, url string, logger *log.Logger) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusConflict {
			return nil, fmt.Errorf("netpeer: cannot dial %s: %w", url, ErrPeerTaken)
		}
		return nil, fmt.Errorf("netpeer: cannot dial %s: %w", url, err)
	}
	return newConn(ws, logger), nil
}
