package models

import (
	"context"
	"sync"
	"time"

	"github.com/mmdatafocus/cabinet_inventory/config"
	"github.com/mmdatafocus/cabinet_inventory/utils"
	"github.com/sirupsen/logrus"
)

const (
	EventMovementCommitted = "inventory.movement"
	EventTotalsRebuilt     = "inventory.rebuild"

	DashboardStatsCacheKey = "dashboard:stats"
)

// MovementListener receives every committed movement or rebuild. It must not block.
type MovementListener func(event config.InventoryEventMessage)

var (
	listenersMu sync.RWMutex
	listeners   []MovementListener
)

// OnInventoryEvent registers a listener (the websocket feed) for committed events.
func OnInventoryEvent(l MovementListener) {
	listenersMu.Lock()
	defer listenersMu.Unlock()
	listeners = append(listeners, l)
}

func newInventoryEvent(ctx context.Context, eventType string, record *TransactionRecord) config.InventoryEventMessage {
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	return config.InventoryEventMessage{
		EventType:     eventType,
		TransactionId: record.ID,
		Type:          string(record.Type),
		MaterialId:    record.MaterialId,
		Quantity:      record.Quantity,
		FromLocation:  record.FromLocationId,
		ToLocation:    record.ToLocationId,
		ActorUserId:   record.ActorUserId,
		OccurredAt:    record.Date,
		CorrelationId: correlationId,
	}
}

// PublishCommitted fans a committed record out to Pub/Sub and local listeners,
// and drops cached read projections. Failures are logged only.
func PublishCommitted(ctx context.Context, eventType string, record *TransactionRecord) {
	event := newInventoryEvent(ctx, eventType, record)

	listenersMu.RLock()
	current := append([]MovementListener(nil), listeners...)
	listenersMu.RUnlock()
	for _, l := range current {
		l(event)
	}

	invalidateDashboardStats()

	if config.InventoryEventsTopic() == "" {
		return
	}
	pendingPublishes.Add(1)
	go func() {
		defer pendingPublishes.Done()
		pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if _, err := config.PublishInventoryEvent(pubCtx, event); err != nil {
			config.LogError(config.GetLogger(), "models", "PublishCommitted", "publish inventory event", logrus.Fields{
				"transaction_id": record.ID,
				"event_type":     eventType,
			}, err)
		}
	}()
}

var pendingPublishes sync.WaitGroup

// FlushEvents waits for in-flight Pub/Sub publishes. Call before ClosePubSub on shutdown.
func FlushEvents() {
	pendingPublishes.Wait()
}

func invalidateDashboardStats() {
	if !config.RedisEnabled() {
		return
	}
	if err := config.RemoveRedisKey(DashboardStatsCacheKey); err != nil {
		config.LogError(config.GetLogger(), "models", "invalidateDashboardStats", "remove cache key", DashboardStatsCacheKey, err)
	}
}
