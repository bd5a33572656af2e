// Package wsbridge connects browser map surfaces to the playback engine over
// WebSocket. The hub is the engine's MapController and CardPresenter: outbound
// frames carry camera, layer, parks, card, and transition commands; inbound
// frames report the client's camera pose so captures snapshot what the user
// actually sees.
package wsbridge

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/couchcryptid/storm-navigator/internal/domain"
	"github.com/couchcryptid/storm-navigator/internal/observability"
)

// Frame types on the wire, both directions.
const (
	FrameCamera     = "camera"
	FrameLayers     = "layers"
	FrameParks      = "parks"
	FrameCards      = "cards"
	FrameClearCards = "clearCards"
	FrameTransition = "transition"
)

// Frame is the wire envelope. Data is type-dependent.
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// cameraCommand animates the client camera to a pose over a duration.
type cameraCommand struct {
	Camera     domain.Camera `json:"camera"`
	DurationMs int64         `json:"durationMs"`
}

var errNoCameraReport = errors.New("no client has reported a camera yet")

const writeWait = 5 * time.Second

type client struct {
	id   string
	conn *websocket.Conn

	// gorilla allows one concurrent writer per connection.
	writeMu sync.Mutex
}

func (c *client) send(frame Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(frame)
}

// Hub fans engine commands out to every connected map surface and remembers
// the last camera pose any client reported.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.RWMutex
	clients    map[string]*client
	lastCamera domain.Camera
	hasCamera  bool
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The service fronts a single-origin UI; deployments that need
			// origin checks put them at the proxy.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger:  logger,
		metrics: metrics,
		clients: make(map[string]*client),
	}
}

// HandleWS upgrades the request and services the connection until the client
// goes away. Blocks for the lifetime of the connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}

	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.metrics.ConnectedClients.Set(float64(count))
	h.logger.Info("map client connected", "client_id", c.id, "clients", count)

	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c.id)
	count = len(h.clients)
	h.mu.Unlock()
	h.metrics.ConnectedClients.Set(float64(count))
	conn.Close()
	h.logger.Info("map client disconnected", "client_id", c.id, "clients", count)
}

func (h *Hub) readLoop(c *client) {
	for {
		var frame Frame
		if err := c.conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", "client_id", c.id, "error", err)
			}
			return
		}

		switch frame.Type {
		case FrameCamera:
			var camera domain.Camera
			if err := json.Unmarshal(frame.Data, &camera); err != nil {
				h.logger.Warn("bad camera report", "client_id", c.id, "error", err)
				continue
			}
			h.mu.Lock()
			h.lastCamera = camera
			h.hasCamera = true
			h.mu.Unlock()
		default:
			h.logger.Debug("ignoring unknown frame", "client_id", c.id, "type", frame.Type)
		}
	}
}

// Ready reports whether at least one map surface is connected.
func (h *Hub) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) > 0
}

// ClientCount reports the number of connected map surfaces.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Camera returns the last camera pose any client reported.
func (h *Hub) Camera() (domain.Camera, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.hasCamera {
		return domain.Camera{}, errNoCameraReport
	}
	return h.lastCamera, nil
}

// AnimateCamera eases every connected surface to the target pose.
func (h *Hub) AnimateCamera(camera domain.Camera, duration time.Duration) error {
	return h.broadcast(FrameCamera, cameraCommand{Camera: camera, DurationMs: duration.Milliseconds()})
}

// ApplyLayerVisibility flips layer visibility on every connected surface.
func (h *Hub) ApplyLayerVisibility(visibility map[string]bool) error {
	return h.broadcast(FrameLayers, visibility)
}

// ApplyParksState toggles the parks filter patch on every connected surface.
func (h *Hub) ApplyParksState(enabled bool) error {
	return h.broadcast(FrameParks, enabled)
}

// ShowCards reveals annotation cards on every connected surface.
func (h *Hub) ShowCards(sceneCards []domain.AnnotationCard) error {
	return h.broadcast(FrameCards, sceneCards)
}

// ClearCards removes all annotation cards from every connected surface.
func (h *Hub) ClearCards() error {
	return h.broadcast(FrameClearCards, nil)
}

// BroadcastTransition pushes a transition pulse to every connected surface.
// Registered as a broadcast.Listener at wiring time.
func (h *Hub) BroadcastTransition(diff domain.TransitionDiff) {
	if err := h.broadcast(FrameTransition, diff); err != nil {
		h.logger.Warn("transition broadcast failed", "error", err)
	}
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.conn.Close()
	}
	return nil
}

func (h *Hub) broadcast(frameType string, data any) error {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}
		raw = encoded
	}
	frame := Frame{Type: frameType, Data: raw}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.send(frame); err != nil {
			// The read loop notices the dead connection and unregisters it.
			h.logger.Warn("websocket write failed", "client_id", c.id, "error", err)
		}
	}
	return nil
}
