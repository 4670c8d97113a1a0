package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast-server/internal/auth"
	"github.com/roomcast/roomcast-server/internal/config"
	"github.com/roomcast/roomcast-server/internal/core"
	"github.com/roomcast/roomcast-server/internal/store"
)

// wsSession is what the bridge needs from either engine: raw frames in,
// events out, one idempotent teardown.
type wsSession interface {
	Client() *core.Client
	Receive(ctx context.Context, raw []byte) error
	Disconnect()
}

// WSHandler upgrades HTTP connections and bridges them to a session engine.
type WSHandler struct {
	registry    core.Registry
	authService *auth.Service
	store       store.Store
	cfg         *config.Config
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(reg core.Registry, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *WSHandler {
	return &WSHandler{
		registry:    reg,
		authService: authService,
		store:       st,
		cfg:         cfg,
		log:         logger,
	}
}

// Room serves a public-room connection. No credentials: the display name
// travels inside each frame.
// GET /ws/room/:name
func (h *WSHandler) Room(c *gin.Context) {
	room := c.Param("name")
	if room == "" {
		c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}

	session := core.NewRoomSession(h.registry, h.log, room)
	if err := session.Connect(); err != nil {
		h.log.Error().Err(err).Str("room", room).Msg("room connect failed")
		conn.Close(websocket.StatusInternalError, "connect failed")
		return
	}

	h.serve(c.Request.Context(), conn, session)
}

// Chat serves a private-chat connection. The identity comes from the auth
// collaborator and is checked against the conversation's participant set
// before the socket ever reaches the connected state.
// GET /ws/chat/:id
func (h *WSHandler) Chat(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid conversation id"})
		return
	}

	token := bearerToken(c)
	if token == "" {
		c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "missing token"})
		return
	}
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		h.log.Debug().Err(err).Msg("invalid ws token")
		c.JSON(stdhttp.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	}

	user := core.Identity{ID: claims.UserID, Name: claims.Username}
	session := core.NewChatSession(h.registry, h.store, h.log, id, user)

	// Authorize before upgrading; a refused connect is an HTTP status, the
	// session never joins the channel.
	if err := session.Connect(c.Request.Context()); err != nil {
		switch {
		case errors.Is(err, core.ErrConversationNotFound), errors.Is(err, core.ErrNotParticipant):
			// Outsiders see the same response as a missing conversation.
			c.JSON(stdhttp.StatusNotFound, ErrorResponse{Error: "conversation not found"})
		default:
			h.log.Error().Err(err).Int64("conversation_id", id).Msg("chat connect failed")
			c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		session.Disconnect()
		return
	}

	h.serve(c.Request.Context(), conn, session)
}

// serve pumps the connection until either side fails. Abrupt network
// closure lands on the same teardown as a clean close: the deferred
// Disconnect deregisters and runs the engine's cleanup.
func (h *WSHandler) serve(ctx context.Context, conn *websocket.Conn, session wsSession) {
	defer conn.Close(websocket.StatusInternalError, "internal error")
	defer session.Disconnect()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newFrameLimiter(h.cfg.MessageRateLimit)
	stop := make(chan struct{})
	defer close(stop)
	limiter.startReset(stop)

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session.Client())
	}()

	err := <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	session.Disconnect()
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session wsSession, limiter *frameLimiter) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.allow() {
			h.log.Warn().Str("client_id", session.Client().ID).Msg("rate limit exceeded, dropping frame")
			continue
		}
		if err := session.Receive(ctx, data); err != nil {
			h.log.Warn().Err(err).Str("client_id", session.Client().ID).Msg("handle inbound frame")
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *core.Client) error {
	for {
		select {
		case event := <-client.Events:
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("client_id", client.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
