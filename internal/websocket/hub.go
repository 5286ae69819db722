// internal/websocket/hub.go
package websocket

import (
	"context"
	"log"
	"sync"

	wstypes "referral-service/internal/domain/websocket"
	"referral-service/internal/metrics"
	"referral-service/internal/pkg/jwt"
	"referral-service/internal/pkg/session"
)

type Hub struct {
	// Registered clients by identity ID
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	// Registration/unregistration
	Register   chan *Client
	unregister chan *Client

	// Broadcasting
	broadcast chan *BroadcastMessage

	// Auth dependencies
	jwtManager     *jwt.Manager
	sessionManager *session.Manager

	// Called after a client gains channel subscriptions, so the bridge
	// can push an immediate snapshot instead of waiting for a change.
	onSubscribe func(*Client, []wstypes.ChannelType)
}

// SetSubscribeHook installs the post-subscribe callback. Must be called
// before Run.
func (h *Hub) SetSubscribeHook(fn func(*Client, []wstypes.ChannelType)) {
	h.onSubscribe = fn
}

func (h *Hub) onSubscribed(client *Client, channels []wstypes.ChannelType) {
	if h.onSubscribe != nil && len(channels) > 0 {
		h.onSubscribe(client, channels)
	}
}

type BroadcastMessage struct {
	// IdentityIDs nil means every client. AdminOnly restricts delivery to
	// clients holding the admin role; AffiliateOnly to those without it.
	IdentityIDs   []string
	AdminOnly     bool
	AffiliateOnly bool
	Channel       wstypes.ChannelType
	Message       *wstypes.WSMessage
}

func NewHub(jwtManager *jwt.Manager, sessionManager *session.Manager) *Hub {
	return &Hub{
		clients:        make(map[string]map[*Client]bool),
		Register:       make(chan *Client),
		unregister:     make(chan *Client),
		broadcast:      make(chan *BroadcastMessage, 256),
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
	}
}

// AuthenticateClient validates the JWT token and its session and returns
// the authenticated client identity.
func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.jwtManager.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	sessionData, err := h.sessionManager.Get(ctx, claims.IdentityID, claims.ID)
	if err != nil {
		return nil, ErrSessionExpired
	}

	return &ClientAuth{
		IdentityID: claims.IdentityID,
		SessionID:  claims.ID,
		Email:      sessionData.Email,
		Role:       claims.Role,
	}, nil
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.BroadcastMessage(msg)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.identityID] == nil {
		h.clients[client.identityID] = make(map[*Client]bool)
	}
	h.clients[client.identityID][client] = true
	metrics.WSClientConnected()

	log.Printf("Client connected: identity=%s, session=%s, total=%d",
		client.identityID, client.sessionID, h.totalClients())

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"identity_id": client.identityID,
		"session_id":  client.sessionID,
		"role":        client.role,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.identityID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()
			metrics.WSClientDisconnected()

			if len(clients) == 0 {
				delete(h.clients, client.identityID)
			}

			log.Printf("Client disconnected: identity=%s, session=%s, total=%d",
				client.identityID, client.sessionID, h.totalClients())
		}
	}
}

func (h *Hub) BroadcastMessage(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	deliver := func(clients map[*Client]bool) {
		for client := range clients {
			if msg.AdminOnly && !client.IsAdmin() {
				continue
			}
			if msg.AffiliateOnly && client.IsAdmin() {
				continue
			}
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if msg.IdentityIDs == nil {
		for _, clients := range h.clients {
			deliver(clients)
		}
		return
	}
	for _, identityID := range msg.IdentityIDs {
		if clients, ok := h.clients[identityID]; ok {
			deliver(clients)
		}
	}
}

// SendToIdentity queues a message for every connection of one identity.
func (h *Hub) SendToIdentity(identityID string, channel wstypes.ChannelType, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{
		IdentityIDs: []string{identityID},
		Channel:     channel,
		Message:     msg,
	}
}

// SendToAffiliate queues a message for one identity's non-admin connections.
func (h *Hub) SendToAffiliate(identityID string, channel wstypes.ChannelType, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{
		IdentityIDs:   []string{identityID},
		AffiliateOnly: true,
		Channel:       channel,
		Message:       msg,
	}
}

// SendToAdmins queues a message for every connected admin.
func (h *Hub) SendToAdmins(channel wstypes.ChannelType, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{
		AdminOnly: true,
		Channel:   channel,
		Message:   msg,
	}
}

// SendToAll queues a message for every connected client.
func (h *Hub) SendToAll(channel wstypes.ChannelType, msg *wstypes.WSMessage) {
	h.broadcast <- &BroadcastMessage{
		Channel: channel,
		Message: msg,
	}
}

// ConnectedIdentities lists identity ids with at least one live connection.
func (h *Hub) ConnectedIdentities() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) GetConnectedClients(identityID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.clients[identityID]; ok {
		return len(clients)
	}
	return 0
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
}
