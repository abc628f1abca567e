// Package server accepts toll client connections and runs one
// request/response session per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminclauss/tollgate/internal/feed"
	"github.com/benjaminclauss/tollgate/internal/protocol"
	"github.com/benjaminclauss/tollgate/internal/stats"
	"github.com/benjaminclauss/tollgate/internal/toll"
)

// DefaultEventBuffer is how many transition events may queue between the
// session handlers and the event consumer before events are dropped.
const DefaultEventBuffer = 64

// Options tunes per-session behavior. Zero timeouts disable the
// corresponding deadline.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	EventBuffer  int
}

// Server owns the listener loop and the event fan-out.
//
// Each accepted connection is one session: exactly one request, one
// response, then close. Sessions run concurrently and share nothing but the
// machine, which serializes ledger access, and the event channel.
type Server struct {
	machine *toll.Machine
	stats   *stats.Collector
	feed    feed.Publisher
	opts    Options

	connID atomic.Uint64
	events chan toll.Event
}

func New(machine *toll.Machine, collector *stats.Collector, publisher feed.Publisher, opts Options) *Server {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultEventBuffer
	}
	return &Server{
		machine: machine,
		stats:   collector,
		feed:    publisher,
		opts:    opts,
		events:  make(chan toll.Event, opts.EventBuffer),
	}
}

// Serve accepts connections on lis until ctx is cancelled. Cancellation
// closes the listener, waits for in-flight sessions, and stops the event
// consumer.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		if err := lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			slog.Error("error closing listener", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		var sessions sync.WaitGroup
		defer sessions.Wait()
		for {
			conn, err := lis.Accept()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return nil
				}
				slog.Error("error accepting connection", "error", err)
				continue
			}
			sessions.Add(1)
			go func() {
				defer sessions.Done()
				s.handle(ctx, conn)
			}()
		}
	})

	g.Go(func() error {
		s.consumeEvents(ctx)
		return nil
	})

	return g.Wait()
}

// handle runs one session. Every outcome other than an empty connection or
// a transport failure gets a response line before the connection closes.
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer closeOrLog(conn)

	logger := slog.With("connection", s.connID.Add(1), "remote_addr", conn.RemoteAddr())
	logger.Debug("client connected")

	if s.opts.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}

	req, err := protocol.ReadRequest(conn)
	if err != nil {
		var reqErr *toll.RequestError
		switch {
		case errors.As(err, &reqErr):
			logger.Warn("request rejected", "kind", reqErr.Kind, "error", err)
			s.respond(logger, conn, protocol.Response{OK: false, Message: reqErr.Msg})
		case errors.Is(err, io.EOF):
			logger.Debug("client sent no request")
		default:
			logger.Warn("error reading request", "error", err)
		}
		return
	}

	var resp protocol.Response
	transition, err := s.machine.Apply(ctx, req.Plate, req.Action, req.Point, time.Now())
	switch {
	case err == nil:
		resp = protocol.Response{OK: true, Message: transitionMessage(transition)}
		logger.Info("transition applied",
			"action", transition.Action,
			"plate", transition.Plate,
			"point", transition.Point,
		)
		s.publish(transition)
	default:
		var reqErr *toll.RequestError
		if errors.As(err, &reqErr) {
			resp = protocol.Response{OK: false, Message: reqErr.Msg}
			logger.Warn("request rejected",
				"kind", reqErr.Kind,
				"action", req.Action,
				"plate", req.Plate,
				"point", req.Point,
			)
		} else {
			resp = protocol.Response{OK: false, Message: "internal error"}
			logger.Error("error applying transition", "plate", req.Plate, "error", err)
		}
	}
	s.respond(logger, conn, resp)
}

func (s *Server) respond(logger *slog.Logger, conn net.Conn, resp protocol.Response) {
	if s.opts.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	}
	if err := protocol.WriteResponse(conn, resp); err != nil {
		logger.Warn("error writing response", "error", err)
	}
}

// publish hands a transition to the event consumer without ever blocking
// the session: when the buffer is full the event is dropped, not the
// response.
func (s *Server) publish(t *toll.Transition) {
	ev := toll.Event{ID: uuid.New().String(), Transition: *t}
	select {
	case s.events <- ev:
	default:
		slog.Warn("event buffer full, dropping event", "event_id", ev.ID, "plate", ev.Plate)
	}
}

func (s *Server) consumeEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-s.events:
			s.stats.Observe(ev)
			if err := s.feed.Publish(ctx, ev); err != nil {
				slog.Warn("error publishing event", "event_id", ev.ID, "plate", ev.Plate, "error", err)
			}
		}
	}
}

func transitionMessage(t *toll.Transition) string {
	if t.Action == toll.Entry {
		return fmt.Sprintf("vehicle %s entered at point %d", t.Plate, t.Point)
	}
	return fmt.Sprintf("vehicle %s exited at point %d", t.Plate, t.Point)
}

func closeOrLog(conn net.Conn) {
	if err := conn.Close(); err != nil {
		slog.Error("error closing connection", "error", err, "remote_addr", conn.RemoteAddr())
	}
}
