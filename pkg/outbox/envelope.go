package outbox

import (
	"encoding/json"
	"time"

	"github.com/platofoods/plato-backend/pkg/enums"
)

// ActorRef identifies the principal that caused an event.
type ActorRef struct {
	UserID string          `json:"user_id,omitempty"`
	Role   enums.ActorRole `json:"role,omitempty"`
}

// PayloadEnvelope is the versioned wire shape stored in the outbox payload
// column and published verbatim to Pub/Sub.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"event_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
