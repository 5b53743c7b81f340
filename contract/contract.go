//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"peerchat/domain/event"
)

// EventSink receives room-scoped events for one live connection.
// Consume must not block longer than the registry's delivery budget;
// implementations buffer and report overflow as an error.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry is the live fan-out membership for chat rooms.
// Membership bookkeeping is in-memory only; a restart loses nothing durable,
// clients re-join on reconnect. Implementations must be safe for concurrent
// subscribe, unsubscribe and broadcast, and must never hold their lock
// across a sink delivery.
type IRegistry interface {
	Subscribe(chatID, connID string, sink EventSink)
	Unsubscribe(chatID, connID string)
	// Broadcast delivers e to every subscriber of chatID except excludeConnID.
	// Delivery is best effort per connection: one failing sink is logged and
	// evicted, never aborting delivery to the others.
	Broadcast(ctx context.Context, chatID string, e event.DomainEvent, excludeConnID string)
}

// Evictor is notified when a sink failed delivery and its connection
// should be torn down.
type Evictor interface {
	Evict(connID string)
}

// Worker is a long-running background loop run under supervision.
// Run blocks until the context is cancelled or the loop fails.
type Worker interface {
	Run(ctx context.Context) error
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// GetWorkerName reports the worker's concrete type for log lines.
func GetWorkerName(w Worker) string {
	t := reflect.TypeOf(w)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
