package bus

import (
	"context"

	"github.com/yungbote/quizdesk-backend/internal/realtime"
)

// Bus fans SSE messages out across instances. Each instance publishes its
// own events and forwards everything it receives into the local hub.
type Bus interface {
	Publish(ctx context.Context, msg realtime.SSEMessage) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.SSEMessage)) error
	Close() error
}
