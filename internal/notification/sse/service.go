// Package sse provides Server-Sent Events support for real-time alert delivery.
package sse

import (
	"encoding/json"
	"net/http"
	"sync"

	"lead_intel_backend/platform/logger"
	"lead_intel_backend/platform/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventType represents different types of SSE events
type EventType string

const (
	EventAlertRaised  EventType = "alert_raised"
	EventLeadIngested EventType = "lead_ingested"
)

const clientBuffer = 32

// Event represents an SSE event payload
type Event struct {
	Type    EventType `json:"type"`
	LeadID  uuid.UUID `json:"leadId,omitempty"`
	AlertID uuid.UUID `json:"alertId,omitempty"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// client represents a connected SSE client
type client struct {
	userID uuid.UUID
	events chan Event
}

// Service manages SSE connections and broadcasts to every connected dashboard.
type Service struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	log     *logger.Logger
}

// New creates a new SSE service
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		clients: make(map[*client]struct{}),
		log:     log,
	}
}

func (s *Service) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	metrics.SetStreamClients(len(s.clients))
	return true
}

func (s *Service) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.events)
	metrics.SetStreamClients(len(s.clients))
}

// ClientCount returns the number of connected clients.
func (s *Service) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast sends an event to every connected client. Slow clients drop events
// instead of blocking the publisher. Returns the number of clients reached.
func (s *Service) Broadcast(event Event) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	delivered := 0
	for c := range s.clients {
		select {
		case c.events <- event:
			delivered++
		default:
			s.log.Warn("sse buffer full", "userId", c.userID, "type", event.Type)
		}
	}
	return delivered
}

// Handler returns a Gin handler for SSE connections
func (s *Service) Handler(getUserID func(*gin.Context) (uuid.UUID, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		cl := &client{
			userID: userID,
			events: make(chan Event, clientBuffer),
		}
		if !s.addClient(cl) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream closed"})
			return
		}
		defer s.removeClient(cl)

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")

		c.SSEvent("connected", gin.H{"userId": userID})
		c.Writer.Flush()

		log := s.log.WithContext(c.Request.Context())
		log.Debug("sse client connected")

		clientGone := c.Request.Context().Done()
		for {
			select {
			case <-clientGone:
				log.Debug("sse client disconnected")
				return
			case event, ok := <-cl.events:
				if !ok {
					return
				}
				data, err := json.Marshal(event)
				if err != nil {
					log.Error("sse marshal failed", "error", err)
					continue
				}
				c.SSEvent(string(event.Type), string(data))
				c.Writer.Flush()
			}
		}
	}
}

// Close disconnects every client and rejects new ones.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for c := range s.clients {
		close(c.events)
	}
	s.clients = make(map[*client]struct{})
	metrics.SetStreamClients(0)
}
