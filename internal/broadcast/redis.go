package broadcast

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const channelPattern = "easel:session:*"

func sessionChannel(sessionID string) string {
	return "easel:session:" + sessionID
}

// envelope is the wire form published to Redis. Origin identifies the node
// that published the event so subscribers can drop their own echoes.
type envelope struct {
	Origin    string          `json:"origin"`
	SessionID string          `json:"session_id"`
	UserID    uuid.UUID       `json:"user_id,omitempty"`
	Event     string          `json:"event"`
	Payload   json.RawMessage `json:"payload"`
}

// Local is the in-process fan-out the bridge feeds. The hub satisfies it.
type Local interface {
	Notify(sessionID, event string, payload any)
	Deliver(sessionID string, userID uuid.UUID, event string, payload any)
}

// Bridge relays session events through Redis pub/sub so every API node
// sees events for sessions hosted elsewhere. It wraps the local hub:
// events go to local subscribers immediately and to Redis for the rest of
// the fleet.
type Bridge struct {
	node   string
	rdb    *redis.Client
	local  Local
	cancel context.CancelFunc
}

func NewBridge(rdb *redis.Client, local Local) *Bridge {
	return &Bridge{
		node:  uuid.NewString(),
		rdb:   rdb,
		local: local,
	}
}

// Run subscribes to the session channel pattern and replays remote events
// into the local hub until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	sub := b.rdb.PSubscribe(ctx, channelPattern)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Printf("Failed to decode broadcast envelope: %v", err)
				continue
			}
			if env.Origin == b.node {
				continue
			}
			if env.UserID != uuid.Nil {
				b.local.Deliver(env.SessionID, env.UserID, env.Event, env.Payload)
			} else {
				b.local.Notify(env.SessionID, env.Event, env.Payload)
			}
		}
	}
}

func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
}

func (b *Bridge) Notify(sessionID, event string, payload any) {
	b.local.Notify(sessionID, event, payload)
	b.publish(sessionID, uuid.Nil, event, payload)
}

func (b *Bridge) Deliver(sessionID string, userID uuid.UUID, event string, payload any) {
	b.local.Deliver(sessionID, userID, event, payload)
	b.publish(sessionID, userID, event, payload)
}

func (b *Bridge) publish(sessionID string, userID uuid.UUID, event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to encode broadcast payload for session %s: %v", sessionID, err)
		return
	}
	env := envelope{
		Origin:    b.node,
		SessionID: sessionID,
		UserID:    userID,
		Event:     event,
		Payload:   raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("Failed to encode broadcast envelope for session %s: %v", sessionID, err)
		return
	}
	if err := b.rdb.Publish(context.Background(), sessionChannel(sessionID), data).Err(); err != nil {
		log.Printf("Failed to publish broadcast for session %s: %v", sessionID, err)
	}
}
