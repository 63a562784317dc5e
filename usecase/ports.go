package usecase

import (
	"context"

	"github.com/claritytasks/backend/domain"
)

// Write operation names shared with the offline outbox.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// OperationOutbox abstracts the offline write buffer so use cases stay
// storage-agnostic. A buffered operation is replayed once the primary store
// is reachable again.
type OperationOutbox interface {
	BufferTask(ctx context.Context, operation string, task *domain.Task) error
}

// ChangeNotifier is how mutations announce that the task collection changed.
// Subscribers recompute derived state (scores, caches) from the full
// authoritative set, so notifications carry no payload.
type ChangeNotifier interface {
	NotifyTaskChange(owner string)
}
