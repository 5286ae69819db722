// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"referral-service/internal/domain/affiliate"
	"referral-service/internal/domain/lead"

	"github.com/oklog/ulid/v2"
)

// EventType represents different real-time event types
type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Snapshot events (server -> client). Each event carries the full
	// current state for its channel, never a delta.
	EventTypeLeadSnapshot     EventType = "leads:snapshot"
	EventTypeRosterSnapshot   EventType = "roster:snapshot"
	EventTypeStatsSnapshot    EventType = "stats:snapshot"
	EventTypeOverviewSnapshot EventType = "overview:snapshot"

	// Sync state events
	EventTypeSyncDegraded EventType = "sync:degraded"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"
)

// WSMessage is the universal message format
type WSMessage struct {
	Type      EventType              `json:"type"`
	Data      interface{}            `json:"data,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	ID        string                 `json:"id,omitempty"`
}

// Subscription channels that clients can subscribe to
type ChannelType string

const (
	ChannelLeads  ChannelType = "leads"
	ChannelRoster ChannelType = "roster"
	ChannelStats  ChannelType = "stats"
	ChannelSystem ChannelType = "system"
)

// SubscribeRequest sent by client to subscribe to specific channels
type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// UnsubscribeRequest sent by client to unsubscribe from channels
type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

// ErrorData for error events
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// LeadSnapshotData carries the full lead list visible to the client.
type LeadSnapshotData struct {
	Leads []lead.Lead `json:"leads"`
	Count int         `json:"count"`
}

// RosterSnapshotData carries the derived affiliate roster (admin only).
type RosterSnapshotData struct {
	Affiliates []affiliate.Affiliate `json:"affiliates"`
	Overview   affiliate.Overview    `json:"overview"`
}

// StatsSnapshotData carries one affiliate's derived figures.
type StatsSnapshotData struct {
	Stats affiliate.Stats `json:"stats"`
}

// SyncStateData reports the freshness of the pushed snapshots.
type SyncStateData struct {
	Degraded bool   `json:"degraded"`
	Message  string `json:"message"`
}

// Helper to create messages
func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
