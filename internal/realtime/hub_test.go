package realtime

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubDeliveryOrderAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := UserChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	first := SSEMessage{Channel: channel, Event: SSEEventAttemptStarted, Data: map[string]any{"seq": 1}}
	second := SSEMessage{Channel: channel, Event: SSEEventAttemptCompleted, Data: map[string]any{"seq": 2}}
	hub.Broadcast(first)
	hub.Broadcast(second)

	gotFirst := recvMessage(t, clientA.Outbound, time.Second)
	gotSecond := recvMessage(t, clientA.Outbound, time.Second)
	if gotFirst.Event != SSEEventAttemptStarted {
		t.Fatalf("first event: want=%s got=%s", SSEEventAttemptStarted, gotFirst.Event)
	}
	if gotSecond.Event != SSEEventAttemptCompleted {
		t.Fatalf("second event: want=%s got=%s", SSEEventAttemptCompleted, gotSecond.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	reconnect := SSEMessage{Channel: channel, Event: SSEEventAttemptExpired, Data: map[string]any{"seq": 3}}
	hub.Broadcast(reconnect)
	gotReconnect := recvMessage(t, clientB.Outbound, time.Second)
	if gotReconnect.Event != SSEEventAttemptExpired {
		t.Fatalf("reconnect event: want=%s got=%s", SSEEventAttemptExpired, gotReconnect.Event)
	}
}

func TestSSEHubChannelIsolation(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))

	userA := uuid.New()
	userB := uuid.New()
	clientA := hub.NewSSEClient(userA)
	clientB := hub.NewSSEClient(userB)
	hub.AddChannel(clientA, UserChannel(userA))
	hub.AddChannel(clientB, UserChannel(userB))

	hub.Broadcast(SSEMessage{Channel: UserChannel(userA), Event: SSEEventAttemptCompleted})

	recvMessage(t, clientA.Outbound, time.Second)
	select {
	case msg := <-clientB.Outbound:
		t.Fatalf("clientB should not receive messages on another user's channel, got %s", msg.Event)
	case <-time.After(200 * time.Millisecond):
	}
}
