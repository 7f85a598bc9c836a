package launcher

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is a bidirectional message stream to the launcher.
type Conn interface {
	ReadEvent() (Event, error)
	WriteResponse(Response) error
	Close() error
}

// ---------------------------------------------------------------------------
// stdio transport (one JSON object per line)
// ---------------------------------------------------------------------------

type stdioConn struct {
	scanner *bufio.Scanner
	enc     *json.Encoder
	closer  io.Closer
}

// NewStdioConn reads events from r and writes responses to w, one JSON
// object per line. If r is an io.Closer, Close closes it.
func NewStdioConn(r io.Reader, w io.Writer) Conn {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	c := &stdioConn{scanner: sc, enc: json.NewEncoder(w)}
	c.enc.SetEscapeHTML(false)
	if rc, ok := r.(io.Closer); ok {
		c.closer = rc
	}
	return c
}

func (c *stdioConn) ReadEvent() (Event, error) {
	for c.scanner.Scan() {
		line := c.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return Event{}, fmt.Errorf("decoding event: %w", err)
		}
		return ev, nil
	}
	if err := c.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

func (c *stdioConn) WriteResponse(resp Response) error {
	return c.enc.Encode(resp)
}

func (c *stdioConn) Close() error {
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}

// ---------------------------------------------------------------------------
// websocket transport
// ---------------------------------------------------------------------------

// closeTimeout bounds the wait for sending the close frame.
const closeTimeout = time.Second

type wsConn struct {
	conn *websocket.Conn
}

// DialWebSocket connects to the launcher's extension endpoint. The
// extension id is sent in the X-Extension-Id header so the launcher can
// route events.
func DialWebSocket(ctx context.Context, url, extensionID string) (Conn, error) {
	header := http.Header{}
	if extensionID != "" {
		header.Set("X-Extension-Id", extensionID)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("connecting to %s: %w (HTTP %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) ReadEvent() (Event, error) {
	var ev Event
	if err := c.conn.ReadJSON(&ev); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return Event{}, io.EOF
		}
		return Event{}, err
	}
	return ev, nil
}

func (c *wsConn) WriteResponse(resp Response) error {
	return c.conn.WriteJSON(resp)
}

// Close may run while a response is being written; WriteControl is safe
// to call concurrently with the other write methods.
func (c *wsConn) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeTimeout))
	return c.conn.Close()
}

// ---------------------------------------------------------------------------
// Serve loop
// ---------------------------------------------------------------------------

// ServeOptions tunes Serve.
type ServeOptions struct {
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
}

func (o *ServeOptions) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// Serve dispatches events from conn to h until the launcher disconnects
// or ctx is canceled. Queries run concurrently; a new query cancels the
// one still in flight and its response is dropped, since the launcher
// only shows results for the latest keystroke.
func Serve(ctx context.Context, conn Conn, h Handler, opts ServeOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var (
		writeMu     sync.Mutex
		wg          sync.WaitGroup
		cancelQuery context.CancelFunc = func() {}
	)
	defer func() {
		wg.Wait()
		cancelQuery()
	}()

	respond := func(qctx context.Context, ev Event, action *Action, err error) {
		if err != nil {
			opts.log("event %s (%s): %v", ev.ID, ev.Type, err)
			return
		}
		if action == nil {
			return
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		if qctx.Err() != nil {
			return
		}
		if err := conn.WriteResponse(Response{ID: ev.ID, Action: *action}); err != nil {
			opts.log("writing response %s: %v", ev.ID, err)
		}
	}

	for {
		ev, err := conn.ReadEvent()
		if err != nil {
			if isDecodeError(err) {
				opts.log("skipping malformed event: %v", err)
				continue
			}
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}

		if ev.Type != EventQuery {
			action, err := h.HandleEvent(ctx, ev)
			respond(ctx, ev, action, err)
			continue
		}

		cancelQuery()
		var qctx context.Context
		qctx, cancelQuery = context.WithCancel(ctx)
		wg.Add(1)
		go func(qctx context.Context, ev Event) {
			defer wg.Done()
			action, err := h.HandleEvent(qctx, ev)
			respond(qctx, ev, action, err)
		}(qctx, ev)
	}
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
