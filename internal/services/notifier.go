package services

import (
	"context"

	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"github.com/yungbote/quizdesk-backend/internal/realtime"
	"github.com/yungbote/quizdesk-backend/internal/realtime/bus"
)

// sseNotifier pushes completion events to the local hub and, when a bus is
// configured, to the cross-instance channel. Delivery is at-least-once; the
// completion event row is the durable record, this is just the live feed.
type sseNotifier struct {
	log *logger.Logger
	hub *realtime.SSEHub
	bus bus.Bus
}

func NewSSENotifier(baseLog *logger.Logger, hub *realtime.SSEHub, b bus.Bus) CompletionNotifier {
	return &sseNotifier{
		log: baseLog.With("service", "SSENotifier"),
		hub: hub,
		bus: b,
	}
}

func (n *sseNotifier) AttemptCompleted(ctx context.Context, ev *types.CompletionEvent) {
	event := realtime.SSEEventAttemptCompleted
	if ev.Reason == types.CompletionReasonExpired {
		event = realtime.SSEEventAttemptExpired
	}
	msg := realtime.SSEMessage{
		Channel: realtime.UserChannel(ev.UserID),
		Event:   event,
		Data: map[string]any{
			"attempt_id":          ev.AttemptID,
			"quiz_id":             ev.QuizID,
			"final_score_percent": ev.FinalScorePercent,
			"passed":              ev.Passed,
			"completion_reason":   ev.Reason,
			"completed_at":        ev.CompletedAt,
		},
	}

	if n.bus != nil {
		if err := n.bus.Publish(ctx, msg); err != nil {
			n.log.Warn("bus publish failed, falling back to local broadcast",
				"attempt_id", ev.AttemptID, "error", err)
			n.hub.Broadcast(msg)
		}
		return
	}
	n.hub.Broadcast(msg)
}
