package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 16
)

// WSRequest is one operation call sent over the websocket.
type WSRequest struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload"`
}

// WSResponse answers exactly one WSRequest, echoing its id and op.
type WSResponse struct {
	ID       string   `json:"id"`
	Op       string   `json:"op"`
	Response Response `json:"response"`
}

type wsHandler struct {
	svc      *Service
	upgrader websocket.Upgrader
	maxMsg   int64
	logger   *log.Logger
}

func newWSHandler(svc *Service, cfg ServerConfig, logger *log.Logger) *wsHandler {
	allowed := originChecker(cfg.AllowedOrigins)
	return &wsHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.WSReadBuffer,
			WriteBufferSize: cfg.WSWriteBuffer,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed(origin)
			},
		},
		maxMsg: cfg.WSMaxMessage,
		logger: logger.WithPrefix("ws"),
	}
}

// ServeHTTP upgrades the connection and answers requests in arrival order
// until the peer goes away.
func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "err", err)
		return
	}
	id := RequestID(r.Context())
	h.logger.Debug("connected", "remote", r.RemoteAddr, "id", id)

	send := make(chan []byte, sendBufferSize)
	done := make(chan struct{})
	go h.writePump(conn, send, done)

	conn.SetReadLimit(h.maxMsg)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read failed", "err", err, "id", id)
			}
			break
		}
		out, err := json.Marshal(h.answer(r, message))
		if err != nil {
			continue
		}
		select {
		case send <- out:
		case <-done:
		}
	}
	close(send)
	<-done
	h.logger.Debug("disconnected", "id", id)
}

func (h *wsHandler) answer(r *http.Request, message []byte) WSResponse {
	var req WSRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return WSResponse{Response: Failure(&APIError{Code: "invalid_json", Message: "message is not a {id, op, payload} object"})}
	}
	resp := h.svc.Call(r.Context(), req.Op, req.Payload)
	if !resp.Success {
		h.logger.Warn("operation failed", "op", req.Op, "code", resp.Error.Code, "msg_id", req.ID)
	}
	return WSResponse{ID: req.ID, Op: req.Op, Response: resp}
}

// writePump owns all writes to conn; gorilla connections allow one writer.
func (h *wsHandler) writePump(conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case message, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
