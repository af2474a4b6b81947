package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"anoa.com/teamcommonapp/internal/modules/message/dto"
	message "anoa.com/teamcommonapp/internal/modules/message/service"
	"anoa.com/teamcommonapp/pkg/apperror"
	"anoa.com/teamcommonapp/pkg/pubsub"
	"anoa.com/teamcommonapp/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

type MessageHandler struct {
	service  message.MessageService
	broker   pubsub.Broker
	refresh  time.Duration
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewMessageHandler builds the message endpoints. The websocket upgrade only
// accepts browser Origins listed in allowedOrigins; requests without an
// Origin header come from non-browser clients and are let through.
func NewMessageHandler(service message.MessageService, broker pubsub.Broker, refresh time.Duration, allowedOrigins []string, log *zap.Logger) *MessageHandler {
	if broker == nil {
		broker = pubsub.Noop{}
	}
	if refresh <= 0 {
		refresh = 5 * time.Second
	}
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.ToLower(strings.TrimSuffix(o, "/"))] = struct{}{}
	}
	return &MessageHandler{
		service: service,
		broker:  broker,
		refresh: refresh,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[strings.ToLower(origin)]
				return ok
			},
		},
	}
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	messages, err := h.service.ListMessages(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": messages})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var input dto.SendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.ResponseError(c, apperror.New(http.StatusBadRequest, "invalid request body", err))
		return
	}

	msg, err := h.service.SendMessage(c.Request.Context(), userID, applicationID, input)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": msg})
}

// StreamMessages pushes the full thread over a websocket, then re-sends it on
// every refresh tick and whenever a new-message event arrives.
func (h *MessageHandler) StreamMessages(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}
	applicationID, err := response.ParamUUID(c, "application_id")
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	// Authorize before upgrading so failures are ordinary JSON errors.
	initial, err := h.service.ListMessages(c.Request.Context(), userID, applicationID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("failed to upgrade websocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, unsubscribe, err := h.broker.Subscribe(ctx, pubsub.MessageChannel(applicationID))
	if err != nil {
		h.log.Warn("message events unavailable, polling only",
			zap.String("application_id", applicationID.String()),
			zap.Error(err),
		)
	}
	defer unsubscribe()

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.write(conn, initial); err != nil {
		return
	}

	ticker := time.NewTicker(h.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		}

		if !h.push(ctx, conn, userID, applicationID) {
			return
		}
	}
}

// push re-fetches the thread and writes it. It reports false when the
// stream should end.
func (h *MessageHandler) push(ctx context.Context, conn *websocket.Conn, userID, applicationID uuid.UUID) bool {
	messages, err := h.service.ListMessages(ctx, userID, applicationID)
	if err != nil {
		h.log.Warn("failed to refresh message thread",
			zap.String("application_id", applicationID.String()),
			zap.Error(err),
		)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, apperror.Message(err)),
			time.Now().Add(writeWait))
		return false
	}
	return h.write(conn, messages) == nil
}

func (h *MessageHandler) write(conn *websocket.Conn, payload any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(gin.H{"data": payload}); err != nil {
		h.log.Debug("websocket write failed", zap.Error(err))
		return err
	}
	return nil
}
