package comm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	sio "github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/axisem/internal/ctxlog"
)

// Event names exchanged between ranks and the hub.
const (
	eventHello     = "hello"
	eventReady     = "ready"
	eventReject    = "reject"
	eventBarrier   = "barrier"
	eventRelease   = "release"
	eventAbort     = "abort"
	eventFinalize  = "finalize"
	eventFinalized = "finalized"
)

// Hub is the socket.io coordinator hosted by rank 0.
type Hub struct {
	io     *sio.Server
	http   *http.Server
	ln     net.Listener
	coord  *coordinator
	logger *slog.Logger
}

// NewHub starts a coordinator for size ranks listening on addr
// (host:port; port 0 picks a free port).
func NewHub(ctx context.Context, addr string, size int) (*Hub, error) {
	if size < 1 {
		return nil, fmt.Errorf("comm: world size must be positive, got %d", size)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	h := &Hub{
		io:     sio.NewServer(nil, nil),
		ln:     ln,
		coord:  newCoordinator(size),
		logger: ctxlog.FromContext(ctx).With("component", "hub"),
	}
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", h.io.ServeHandler(nil))
	h.http = &http.Server{Handler: mux}

	h.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*sio.Socket)
		if !ok {
			return
		}
		h.attach(client)
	})

	go func() {
		if err := h.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("Hub stopped serving.", "error", err)
		}
	}()
	h.logger.Debug("Hub listening.", "addr", ln.Addr().String(), "size", size)
	return h, nil
}

// URL returns the address clients dial.
func (h *Hub) URL() string {
	return "http://" + h.ln.Addr().String() + "/socket.io/"
}

func (h *Hub) attach(client *sio.Socket) {
	logger := h.logger.With("sid", string(client.Id()))

	client.On(eventHello, func(args ...any) {
		msg, err := decodeMessage(args)
		if err != nil {
			logger.Warn("Malformed hello.", "error", err)
			return
		}
		ready, err := h.coord.join(msg.Rank)
		if err != nil {
			logger.Warn("Rejected rank.", "rank", msg.Rank, "error", err)
			client.Emit(eventReject, err.Error())
			return
		}
		logger.Debug("Rank joined.", "rank", msg.Rank)
		if ready {
			h.io.Emit(eventReady)
		}
	})

	client.On(eventBarrier, func(args ...any) {
		msg, err := decodeMessage(args)
		if err != nil {
			logger.Warn("Malformed barrier.", "error", err)
			return
		}
		done, err := h.coord.arrive(msg.Rank, msg.Epoch)
		if err != nil {
			h.broadcastAbort(msg.Rank, err.Error())
			return
		}
		if done {
			h.io.Emit(eventRelease, map[string]any{"epoch": msg.Epoch})
		}
	})

	client.On(eventAbort, func(args ...any) {
		msg, err := decodeMessage(args)
		if err != nil {
			msg = message{Rank: -1, Message: fmt.Sprint(args...)}
		}
		h.broadcastAbort(msg.Rank, msg.Message)
	})

	client.On(eventFinalize, func(args ...any) {
		msg, err := decodeMessage(args)
		if err != nil {
			logger.Warn("Malformed finalize.", "error", err)
			return
		}
		done, err := h.coord.finalize(msg.Rank)
		if err != nil {
			logger.Warn("Rejected finalize.", "error", err)
			return
		}
		if done {
			h.io.Emit(eventFinalized)
		}
	})
}

func (h *Hub) broadcastAbort(rank int, reason string) {
	if !h.coord.abort() {
		return
	}
	h.logger.Error("Rank aborted the world.", "rank", rank, "reason", reason)
	h.io.Emit(eventAbort, map[string]any{"rank": rank, "message": reason})
}

// Close stops the hub.
func (h *Hub) Close(ctx context.Context) error {
	h.io.Close(nil)
	return h.http.Shutdown(ctx)
}

// message is the payload of every event. Numbers arrive as float64 after
// the JSON round trip.
type message struct {
	Rank    int
	Epoch   int
	Message string
}

func decodeMessage(args []any) (message, error) {
	if len(args) == 0 {
		return message{}, errors.New("empty payload")
	}
	m, ok := args[0].(map[string]any)
	if !ok {
		return message{}, fmt.Errorf("payload is %T, want an object", args[0])
	}
	var msg message
	rank, ok := m["rank"].(float64)
	if !ok {
		return message{}, errors.New("payload has no rank")
	}
	msg.Rank = int(rank)
	if epoch, ok := m["epoch"].(float64); ok {
		msg.Epoch = int(epoch)
	}
	if text, ok := m["message"].(string); ok {
		msg.Message = text
	}
	return msg, nil
}
