package postgres

import (
	"encoding/json"
	"time"

	"github.com/claritytasks/backend/domain"
)

func marshalJSON(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte("null")
	}
	return b
}

func unmarshalJSON(data []byte, dest interface{}) {
	if len(data) == 0 {
		return
	}
	_ = json.Unmarshal(data, dest)
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

// storageErr tags backend failures so callers can distinguish a transient
// outage from a domain-level rejection.
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	return domain.WrapError(domain.ErrCodeUnavailable, "task store unavailable", err)
}
