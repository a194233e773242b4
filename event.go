package qrtr

import (
	"sync"

	"github.com/google/uuid"
)

// EventKind selects which event stream a handler subscribes to.
type EventKind int

const (
	EventNodeAdded EventKind = iota
	EventNodeRemoved
	EventServiceAdded
	EventServiceRemoved
)

// Event is the sum type emitted by an Observer. Grounded on the teacher's
// peer.Input pattern: a closed interface with an unexported marker method
// so only this package can produce new variants.
type Event interface {
	isEvent()
	Kind() EventKind
}

// NodeAdded fires once when a node's published flag transitions to true.
type NodeAdded struct{ Node NodeID }

func (NodeAdded) isEvent()        {}
func (NodeAdded) Kind() EventKind { return EventNodeAdded }

// NodeRemoved fires once when a published node's service list empties.
type NodeRemoved struct{ Node NodeID }

func (NodeRemoved) isEvent()        {}
func (NodeRemoved) Kind() EventKind { return EventNodeRemoved }

// ServiceAdded fires for every NEW_SERVER, regardless of the owning
// node's publish state.
type ServiceAdded struct {
	Node    NodeID
	Service ServiceID
}

func (ServiceAdded) isEvent()        {}
func (ServiceAdded) Kind() EventKind { return EventServiceAdded }

// ServiceRemoved fires for every DEL_SERVER that matched a known entry.
type ServiceRemoved struct {
	Node    NodeID
	Service ServiceID
}

func (ServiceRemoved) isEvent()        {}
func (ServiceRemoved) Kind() EventKind { return EventServiceRemoved }

// SubscriptionToken identifies a registered handler for later removal.
type SubscriptionToken uuid.UUID

type subscription struct {
	token   SubscriptionToken
	kind    EventKind
	handler func(Event)
}

// subscriberRegistry fans an Event out to every handler registered for its
// kind. Mutated from any goroutine (Subscribe/Unsubscribe are public
// API); dispatch is always called from the Observer's single run-loop
// goroutine, so handlers never overlap with each other.
type subscriberRegistry struct {
	mu   sync.RWMutex
	subs []subscription
}

func newSubscriberRegistry() *subscriberRegistry {
	return &subscriberRegistry{}
}

func (r *subscriberRegistry) add(kind EventKind, handler func(Event)) SubscriptionToken {
	token := SubscriptionToken(uuid.New())

	r.mu.Lock()
	r.subs = append(r.subs, subscription{token: token, kind: kind, handler: handler})
	r.mu.Unlock()

	return token
}

func (r *subscriberRegistry) remove(token SubscriptionToken) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.subs {
		if s.token == token {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

func (r *subscriberRegistry) dispatch(ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.subs {
		if s.kind == ev.Kind() {
			s.handler(ev)
		}
	}
}
