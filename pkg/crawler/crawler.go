// Package crawler implements the periodic chain watcher of the daemon. It
// polls the explorer for the things the engine cares about between casts:
// new deposits on watched funding addresses and the confirmation of
// broadcast commit/spell transactions. Events are emitted through a channel,
// the watcher never acts on them itself.
package crawler

import (
	"github.com/spellex-network/spellex-daemon/pkg/explorer"
)

// Event is emitted through the event channel during observation.
type Event interface {
	Type() EventType
}

// Observable represents an object that can be watched on the blockchain.
type Observable interface {
	// Observe runs one observation round against the explorer.
	Observe(explorerSvc explorer.Service) (Event, error)
	// Key uniquely identifies the observable within a watcher.
	Key() string
}

// Service is the interface of the chain watcher.
type Service interface {
	Start()
	Stop()
	AddObservable(observable Observable)
	RemoveObservable(observable Observable)
	GetEventChannel() chan Event
}
