// internal/websocket/bridge.go
package websocket

import (
	"context"

	"referral-service/internal/domain/lead"
	wstypes "referral-service/internal/domain/websocket"
	affiliatesvc "referral-service/internal/service/affiliate"
	"referral-service/internal/stream"

	"go.uber.org/zap"
)

// Bridge consumes full lead snapshots from the store and fans them out to
// connected clients, rescoped per identity: admins receive every lead plus
// the derived roster, affiliates receive their own leads plus their figures.
type Bridge struct {
	hub    *Hub
	store  *stream.Store
	logger *zap.Logger
}

func NewBridge(hub *Hub, store *stream.Store, logger *zap.Logger) *Bridge {
	b := &Bridge{
		hub:    hub,
		store:  store,
		logger: logger,
	}
	hub.SetSubscribeHook(b.pushInitial)
	return b
}

// Run forwards snapshots until the context is cancelled. If the store's
// feed degrades, every client is told its data may be stale.
func (b *Bridge) Run(ctx context.Context) {
	ch, cancel := b.store.Subscribe(stream.ScopeAll())
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-ch:
			if !ok {
				if b.store.Degraded() {
					b.logger.Warn("lead feed degraded, notifying websocket clients")
					b.hub.SendToAll(wstypes.ChannelSystem, wstypes.NewMessage(
						wstypes.EventTypeSyncDegraded,
						wstypes.SyncStateData{Degraded: true, Message: "live updates interrupted, data may be stale"},
					))
				}
				return
			}
			b.push(snapshot)
		}
	}
}

func (b *Bridge) push(snapshot []lead.Lead) {
	b.hub.SendToAdmins(wstypes.ChannelLeads, leadSnapshotMessage(snapshot))
	b.hub.SendToAdmins(wstypes.ChannelRoster, rosterSnapshotMessage(snapshot))

	for _, identityID := range b.hub.ConnectedIdentities() {
		own := ownLeads(snapshot, identityID)
		b.hub.SendToAffiliate(identityID, wstypes.ChannelLeads, leadSnapshotMessage(own))
		b.hub.SendToAffiliate(identityID, wstypes.ChannelStats, statsSnapshotMessage(own))
	}
}

// pushInitial delivers the current snapshot straight to a freshly
// subscribed client so it never starts from an empty view.
func (b *Bridge) pushInitial(client *Client, channels []wstypes.ChannelType) {
	snapshot := b.store.Snapshot(stream.ScopeAll())

	for _, channel := range channels {
		switch channel {
		case wstypes.ChannelLeads:
			if client.IsAdmin() {
				client.SendMessage(leadSnapshotMessage(snapshot))
			} else {
				client.SendMessage(leadSnapshotMessage(ownLeads(snapshot, client.identityID)))
			}
		case wstypes.ChannelRoster:
			client.SendMessage(rosterSnapshotMessage(snapshot))
		case wstypes.ChannelStats:
			client.SendMessage(statsSnapshotMessage(ownLeads(snapshot, client.identityID)))
		case wstypes.ChannelSystem:
			if b.store.Degraded() {
				client.SendMessage(wstypes.NewMessage(wstypes.EventTypeSyncDegraded,
					wstypes.SyncStateData{Degraded: true, Message: "live updates interrupted, data may be stale"}))
			}
		}
	}
}

func ownLeads(snapshot []lead.Lead, identityID string) []lead.Lead {
	scope := stream.ScopeAffiliate(identityID)
	own := make([]lead.Lead, 0)
	for _, l := range snapshot {
		if scope.Matches(l) {
			own = append(own, l)
		}
	}
	return own
}

func leadSnapshotMessage(leads []lead.Lead) *wstypes.WSMessage {
	sorted := lead.Newest(leads)
	return wstypes.NewMessage(wstypes.EventTypeLeadSnapshot, wstypes.LeadSnapshotData{
		Leads: sorted,
		Count: len(sorted),
	})
}

func rosterSnapshotMessage(snapshot []lead.Lead) *wstypes.WSMessage {
	return wstypes.NewMessage(wstypes.EventTypeRosterSnapshot, wstypes.RosterSnapshotData{
		Affiliates: affiliatesvc.BuildRoster(snapshot),
		Overview:   affiliatesvc.BuildOverview(snapshot),
	})
}

func statsSnapshotMessage(own []lead.Lead) *wstypes.WSMessage {
	return wstypes.NewMessage(wstypes.EventTypeStatsSnapshot, wstypes.StatsSnapshotData{
		Stats: affiliatesvc.BuildStats(own),
	})
}
