package websocket

import (
	"sync"
	"time"

	"business-directory-backend/db/models"

	"github.com/gofiber/websocket/v2"
)

type MessageType string

const (
	MessageTypeImportProgress MessageType = "IMPORT_PROGRESS"
	MessageTypeError          MessageType = "ERROR"
)

type WebSocketMessage struct {
	Type      MessageType `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	JobID     string      `json:"jobId,omitempty"`
}

// importProgressPayload is the trimmed job snapshot pushed to dashboards.
// Row-level lists are deliberately left out; clients poll the job endpoint
// for those.
type importProgressPayload struct {
	JobID          string `json:"job_id"`
	Status         string `json:"status"`
	TotalRows      int    `json:"total_rows"`
	ProcessedRows  int    `json:"processed_rows"`
	SuccessCount   int    `json:"success_count"`
	ErrorCount     int    `json:"error_count"`
	DuplicateCount int    `json:"duplicate_count"`
	Progress       int    `json:"progress"`
	ETASeconds     *int   `json:"eta_seconds"`
}

type Client struct {
	Conn *websocket.Conn
	Hub  *Hub
	Send chan WebSocketMessage
	// Empty means "all jobs".
	JobID string
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan WebSocketMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan WebSocketMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.dispatch(message)
		}
	}
}

// BroadcastJobProgress satisfies the orchestrator's ProgressBroadcaster.
// Called after every batch and on terminal transitions.
func (h *Hub) BroadcastJobProgress(job *models.ImportJob) {
	h.broadcast <- WebSocketMessage{
		Type:      MessageTypeImportProgress,
		JobID:     job.ID.String(),
		Timestamp: time.Now(),
		Payload: importProgressPayload{
			JobID:          job.ID.String(),
			Status:         string(job.Status),
			TotalRows:      job.TotalRows,
			ProcessedRows:  job.ProcessedRows,
			SuccessCount:   job.SuccessCount,
			ErrorCount:     job.ErrorCount,
			DuplicateCount: job.DuplicateCount,
			Progress:       job.Progress,
			ETASeconds:     job.ETASeconds,
		},
	}
}

// dispatch sends a message to every client watching the message's job, or all
// jobs. Slow clients are dropped rather than blocking the hub.
func (h *Hub) dispatch(message WebSocketMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		if client.JobID != "" && client.JobID != message.JobID {
			continue
		}
		select {
		case client.Send <- message:
		default:
			close(client.Send)
			delete(h.clients, client)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
