// Package directory is the in-memory node/service index the bus observer
// maintains: node id -> node record, each record indexed by service id and
// by port. It is pure data — no I/O, no timers, no event emission; those
// live in the observer that owns a Table.
//
// Grounded on the teacher's pkg/peer.Store and pkg/peers.PeerStore: a
// mutex-guarded map with narrow accessor methods. Unlike those stores,
// Table is written by exactly one goroutine (the observer's run loop) and
// read from any number of others, so the RWMutex here protects concurrent
// reads against that single writer rather than arbitrating between
// multiple writers.
package directory

import (
	"fmt"
	"slices"
	"sync"
)

// NodeID identifies a node on the bus.
type NodeID uint32

// ServiceID identifies a service a node exports.
type ServiceID uint32

// Service is one immutable service entry: a service exported at a given
// port, with version/instance metadata. Uniquely keyed by (node, Port);
// (ServiceID, Version, Instance) is descriptive only.
type Service struct {
	ServiceID ServiceID
	Port      uint32
	Version   uint8
	Instance  uint32 // 24-bit instance tag, high bits always zero
}

type node struct {
	id        NodeID
	services  []Service // insertion order
	byService map[ServiceID][]Service
	byPort    map[uint32]Service
	published bool
}

func newNode(id NodeID) *node {
	return &node{
		id:        id,
		byService: make(map[ServiceID][]Service),
		byPort:    make(map[uint32]Service),
	}
}

func (n *node) insert(svc Service) {
	n.services = append(n.services, svc)
	n.byPort[svc.Port] = svc

	list := n.byService[svc.ServiceID]
	list = append(list, svc)
	slices.SortStableFunc(list, func(a, b Service) int { return int(a.Version) - int(b.Version) })
	n.byService[svc.ServiceID] = list
}

// remove deletes the entry at port, reports whether one existed.
func (n *node) remove(port uint32) (Service, bool) {
	svc, ok := n.byPort[port]
	if !ok {
		return Service{}, false
	}
	delete(n.byPort, port)

	n.services = slices.DeleteFunc(n.services, func(s Service) bool { return s.Port == port })

	list := n.byService[svc.ServiceID]
	list = slices.DeleteFunc(list, func(s Service) bool { return s.Port == port })
	if len(list) == 0 {
		delete(n.byService, svc.ServiceID)
	} else {
		n.byService[svc.ServiceID] = list
	}

	return svc, true
}

func (n *node) snapshot() NodeView {
	return NodeView{ID: n.id, Services: slices.Clone(n.services)}
}

// NodeView is a read-only, copied-out view of a node record: safe to hold
// after the underlying record changes or disappears.
type NodeView struct {
	ID       NodeID
	Services []Service
}

// Table is the node directory. Zero value is not usable; use New.
type Table struct {
	mu    sync.RWMutex
	nodes map[NodeID]*node
}

// New returns an empty directory.
func New() *Table {
	return &Table{nodes: make(map[NodeID]*node)}
}

// InsertService records a service entry for node, creating the node
// record (unpublished) if this is the first service seen for it. Reports
// whether the node record was newly created.
//
// The wire contract guarantees the kernel never issues a duplicate
// NEW_SERVER for the same (node, port); InsertService does not itself
// deduplicate, matching spec.md's documented non-guarantee.
func (t *Table) InsertService(id NodeID, port uint32, service ServiceID, version uint8, instance uint32) (created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		n = newNode(id)
		t.nodes[id] = n
		created = true
	}
	n.insert(Service{ServiceID: service, Port: port, Version: version, Instance: instance})
	return created
}

// RemoveService removes the entry at (id, port). ok is false if the node
// or port is unknown — callers should log a warning and otherwise no-op,
// per spec.md's stray-DEL_SERVER handling. empty reports whether the node
// now has zero services.
func (t *Table) RemoveService(id NodeID, port uint32) (removed Service, empty bool, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, exists := t.nodes[id]
	if !exists {
		return Service{}, false, false
	}
	removed, ok = n.remove(port)
	if !ok {
		return Service{}, false, false
	}
	return removed, len(n.services) == 0, true
}

// LookupPort returns the port of the highest-version entry for service on
// node, or false if no such service exists.
func (t *Table) LookupPort(id NodeID, service ServiceID) (port uint32, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, exists := t.nodes[id]
	if !exists {
		return 0, false
	}
	list := n.byService[service]
	if len(list) == 0 {
		return 0, false
	}
	return list[len(list)-1].Port, true
}

// LookupService returns the service id at (node, port), or false if none.
func (t *Table) LookupService(id NodeID, port uint32) (service ServiceID, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, exists := t.nodes[id]
	if !exists {
		return 0, false
	}
	svc, ok := n.byPort[port]
	if !ok {
		return 0, false
	}
	return svc.ServiceID, true
}

// EnumerateNodes returns published node ids in unspecified order.
func (t *Table) EnumerateNodes() []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]NodeID, 0, len(t.nodes))
	for id, n := range t.nodes {
		if n.published {
			ids = append(ids, id)
		}
	}
	return ids
}

// Lookup returns a snapshot of node id if it exists and is published.
// peek_node and get_node in spec.md are the same operation under two
// names; both are implemented by this one method.
func (t *Table) Lookup(id NodeID) (NodeView, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[id]
	if !ok || !n.published {
		return NodeView{}, false
	}
	return n.snapshot(), true
}

// IsPublished reports whether node id is currently published, regardless
// of whether it is otherwise known.
func (t *Table) IsPublished(id NodeID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.nodes[id]
	return ok && n.published
}

// SetPublished flips id's published flag, reporting whether it changed.
// Returns an error if the node is unknown — callers only call this after
// InsertService/RemoveService have established the record.
func (t *Table) SetPublished(id NodeID, published bool) (changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.nodes[id]
	if !ok {
		return false, fmt.Errorf("directory: set published on unknown node %d", id)
	}
	if n.published == published {
		return false, nil
	}
	n.published = published
	return true, nil
}

// Remove deletes node id's record outright (used once its service list is
// empty and any pending publish has been cancelled).
func (t *Table) Remove(id NodeID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nodes, id)
}

// Exists reports whether a record for id is present, published or not.
func (t *Table) Exists(id NodeID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.nodes[id]
	return ok
}
