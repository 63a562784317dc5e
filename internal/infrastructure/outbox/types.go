package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item is one deferred task write, recorded while the primary store is
// unreachable and replayed once it comes back.
type Item struct {
	ID        string          `json:"id"`
	TaskID    string          `json:"task_id"`
	Owner     string          `json:"owner"`
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
