package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// ErrUnknownPlayer is returned by unicast sends to identifiers with no
// registered peer.
var ErrUnknownPlayer = errors.New("unknown player")

// Peer is a send-capable handle to one connected client. Send must not
// block on a slow consumer: implementations queue behind a buffer and fail
// fast when it fills.
type Peer interface {
	Send(msg *Message) error
	Close() error
}

// Registry tracks the set of currently connected players and their outbound
// channels. Its lock is disjoint from the game coordinator's, so delivery to
// a broken peer can never stall guess processing.
type Registry struct {
	logger *log.Logger
	mu     sync.RWMutex
	peers  map[uuid.UUID]Peer
}

// NewRegistry creates an empty registry
func NewRegistry(logger *log.Logger) *Registry {
	return &Registry{
		logger: logger.WithPrefix("registry"),
		peers:  make(map[uuid.UUID]Peer),
	}
}

// Register adds a peer under the given player identifier. Registration never
// fails; duplicate display names are allowed because identifiers are unique.
func (r *Registry) Register(id uuid.UUID, peer Peer) {
	r.mu.Lock()
	r.peers[id] = peer
	total := len(r.peers)
	r.mu.Unlock()

	r.logger.Debug("peer registered", "id", id, "total", total)
}

// Unregister removes a peer. Safe to call for identifiers that were never
// registered or were already removed.
func (r *Registry) Unregister(id uuid.UUID) {
	r.mu.Lock()
	_, ok := r.peers[id]
	delete(r.peers, id)
	total := len(r.peers)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("peer unregistered", "id", id, "total", total)
	}
}

// Broadcast delivers msg to every registered peer. A failed delivery does
// not abort the remaining ones: failures are collected and the affected
// peers are evicted afterwards.
func (r *Registry) Broadcast(msg *Message) {
	r.mu.RLock()
	targets := make(map[uuid.UUID]Peer, len(r.peers))
	for id, peer := range r.peers {
		targets[id] = peer
	}
	r.mu.RUnlock()

	var failed []uuid.UUID
	for id, peer := range targets {
		if err := peer.Send(msg); err != nil {
			r.logger.Warn("broadcast delivery failed", "id", id, "type", msg.Type, "error", err)
			failed = append(failed, id)
		}
	}

	for _, id := range failed {
		r.evict(id)
	}
}

// SendTo delivers msg to a single player. A send failure evicts the peer.
func (r *Registry) SendTo(id uuid.UUID, msg *Message) error {
	r.mu.RLock()
	peer, ok := r.peers[id]
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}

	if err := peer.Send(msg); err != nil {
		r.evict(id)
		return err
	}
	return nil
}

// Count returns the number of registered peers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// evict drops a peer whose channel is broken and closes it. Closing wakes
// the connection's pumps, which take care of the coordinator-side cleanup.
func (r *Registry) evict(id uuid.UUID) {
	r.mu.Lock()
	peer, ok := r.peers[id]
	delete(r.peers, id)
	r.mu.Unlock()

	if !ok {
		return
	}

	r.logger.Info("evicting unreachable peer", "id", id)
	_ = peer.Close()
}
