package qrtr

import (
	"slices"

	"github.com/qrtrlink/qrtr-go/internal/directory"
)

// NodeID identifies a node (typically a remote processor) on the bus.
type NodeID = directory.NodeID

// ServiceID identifies a service a node exports.
type ServiceID = directory.ServiceID

// Service is one immutable service entry, uniquely keyed by (node, Port).
type Service = directory.Service

// Node is a read-only snapshot of a published node's service list. It
// does not change after it is handed to a caller; call Observer.GetNode
// again to see subsequent updates.
type Node struct {
	id       NodeID
	services []Service
}

func newNode(v directory.NodeView) Node {
	return Node{id: v.ID, services: v.Services}
}

// ID returns the node's bus id.
func (n Node) ID() NodeID { return n.id }

// Services returns the node's service entries in discovery order.
func (n Node) Services() []Service { return slices.Clone(n.services) }

// Port returns the port of the highest-version entry for service, or
// false if the node does not export it.
func (n Node) Port(service ServiceID) (port uint32, ok bool) {
	var best *Service
	for i := range n.services {
		s := &n.services[i]
		if s.ServiceID != service {
			continue
		}
		if best == nil || s.Version > best.Version {
			best = s
		}
	}
	if best == nil {
		return 0, false
	}
	return best.Port, true
}

// ServiceAt returns the service id hosted at port, or false if none.
func (n Node) ServiceAt(port uint32) (ServiceID, bool) {
	for _, s := range n.services {
		if s.Port == port {
			return s.ServiceID, true
		}
	}
	return 0, false
}
