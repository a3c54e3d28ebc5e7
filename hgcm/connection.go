package hgcm

import (
	"sync"
	"time"

	"github.com/jathurchan/guestprop/clock"
	"github.com/jathurchan/guestprop/logger"
	"github.com/jathurchan/guestprop/types"
)

// ClientInfo holds metadata about a connected guest client.
type ClientInfo struct {
	ClientID    types.ClientID
	Session     uint64    // Distinguishes successive connections with the same ID
	ConnectedAt time.Time // Time the client connected
	LastActive  time.Time // Last time a call was received
	CallCount   int64     // Total number of calls from this client
}

// ClientManager tracks connected guest clients.
type ClientManager interface {
	// Registers a new client; fails if it is already known or the limit is reached.
	OnConnect(clientID types.ClientID) error

	// Removes a client. Returns false if it was not connected.
	OnDisconnect(clientID types.ClientID) bool

	// Updates activity for a client and returns the session the call was
	// admitted on. ok is false for unknown clients.
	OnCall(clientID types.ClientID) (session uint64, ok bool)

	// Reports whether the given session of a client is still connected.
	Connected(clientID types.ClientID, session uint64) bool

	// Returns the number of connected clients
	ActiveClients() int

	// Returns a snapshot of all clients
	AllClientInfo() map[types.ClientID]ClientInfo
}

type clientManager struct {
	mu sync.RWMutex

	clients     map[types.ClientID]*ClientInfo
	maxClients  int
	lastSession uint64

	metrics DispatcherMetrics
	logger  logger.Logger
	clock   clock.Clock
}

// NewClientManager returns a ClientManager admitting up to maxClients clients.
// Falls back to the standard clock if none is given.
func NewClientManager(
	maxClients int,
	metrics DispatcherMetrics,
	log logger.Logger,
	c clock.Clock,
) ClientManager {
	if c == nil {
		c = clock.NewStandardClock()
		log.Warnw("ClientManager initialized with default standard clock (no clock provided)")
	}
	return &clientManager{
		clients:    make(map[types.ClientID]*ClientInfo),
		maxClients: maxClients,
		metrics:    metrics,
		logger:     log.WithComponent("client-manager"),
		clock:      c,
	}
}

// OnConnect registers a new client.
func (cm *clientManager) OnConnect(clientID types.ClientID) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.clients[clientID]; exists {
		cm.logger.Warnw("Client already connected", "client", clientID)
		return ErrClientExists
	}
	if cm.maxClients > 0 && len(cm.clients) >= cm.maxClients {
		cm.logger.Warnw("Client limit reached", "client", clientID, "max", cm.maxClients)
		return ErrTooManyClients
	}

	now := cm.clock.Now()
	cm.lastSession++
	cm.clients[clientID] = &ClientInfo{
		ClientID:    clientID,
		Session:     cm.lastSession,
		ConnectedAt: now,
		LastActive:  now,
	}
	total := len(cm.clients)
	if cm.metrics != nil {
		cm.metrics.SetActiveClients(total)
	}
	cm.logger.Debugw("Guest client connected", "client", clientID, "total_clients", total)
	return nil
}

// OnDisconnect unregisters a client.
func (cm *clientManager) OnDisconnect(clientID types.ClientID) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.clients[clientID]; !exists {
		return false
	}
	delete(cm.clients, clientID)
	if cm.metrics != nil {
		cm.metrics.SetActiveClients(len(cm.clients))
	}
	cm.logger.Debugw("Guest client disconnected", "client", clientID, "total_clients", len(cm.clients))
	return true
}

// OnCall updates the last activity and call count for a client.
func (cm *clientManager) OnCall(clientID types.ClientID) (uint64, bool) {
	now := cm.clock.Now()

	cm.mu.Lock()
	defer cm.mu.Unlock()

	info, exists := cm.clients[clientID]
	if !exists {
		cm.logger.Debugw("Received call from unknown client", "client", clientID)
		return 0, false
	}
	info.LastActive = now
	info.CallCount++
	return info.Session, true
}

// Connected reports whether session is the live connection of clientID.
func (cm *clientManager) Connected(clientID types.ClientID, session uint64) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	info, exists := cm.clients[clientID]
	return exists && info.Session == session
}

// ActiveClients returns the current number of connected clients.
func (cm *clientManager) ActiveClients() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.clients)
}

// AllClientInfo returns a copy of all current client info.
func (cm *clientManager) AllClientInfo() map[types.ClientID]ClientInfo {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	infos := make(map[types.ClientID]ClientInfo, len(cm.clients))
	for id, info := range cm.clients {
		infos[id] = *info
	}
	return infos
}
