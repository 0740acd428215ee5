package observability

import (
	"log/slog"

	"swarmpay/core/events"
	"swarmpay/core/types"
)

// EventBridge satisfies events.Emitter, counting every engine event in the
// metrics registry and logging it. An optional next emitter receives the
// event afterwards so indexers can chain behind the bridge.
type EventBridge struct {
	logger *slog.Logger
	next   events.Emitter
}

// NewEventBridge builds a bridge logging through the given logger. next may
// be nil.
func NewEventBridge(logger *slog.Logger, next events.Emitter) *EventBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventBridge{logger: logger, next: next}
}

// Emit implements events.Emitter.
func (b *EventBridge) Emit(evt events.Event) {
	if b == nil || evt == nil {
		return
	}
	EngineMetrics().CountEvent(evt.EventType())
	if typed, ok := evt.(*types.Event); ok && typed != nil {
		attrs := make([]any, 0, len(typed.Attributes)*2)
		for k, v := range typed.Attributes {
			attrs = append(attrs, slog.String(k, v))
		}
		b.logger.With(attrs...).Info("engine event", slog.String("type", typed.Type))
	} else {
		b.logger.Info("engine event", slog.String("type", evt.EventType()))
	}
	if b.next != nil {
		b.next.Emit(evt)
	}
}
