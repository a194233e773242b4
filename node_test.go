package qrtr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/qrtrlink/qrtr-go/internal/directory"
)

func TestNodePortPrefersHighestVersion(t *testing.T) {
	n := newNode(directory.NodeView{
		ID: 1,
		Services: []Service{
			{ServiceID: 100, Port: 10, Version: 1},
			{ServiceID: 100, Port: 20, Version: 2},
			{ServiceID: 200, Port: 30, Version: 1},
		},
	})

	port, ok := n.Port(100)
	assert.True(t, ok)
	assert.Equal(t, uint32(20), port)

	_, ok = n.Port(999)
	assert.False(t, ok)
}

func TestNodeServiceAt(t *testing.T) {
	n := newNode(directory.NodeView{
		ID: 1,
		Services: []Service{
			{ServiceID: 100, Port: 10, Version: 1},
		},
	})

	svc, ok := n.ServiceAt(10)
	assert.True(t, ok)
	assert.Equal(t, ServiceID(100), svc)

	_, ok = n.ServiceAt(999)
	assert.False(t, ok)
}

func TestNodeServicesIsACopy(t *testing.T) {
	n := newNode(directory.NodeView{
		ID:       1,
		Services: []Service{{ServiceID: 100, Port: 10, Version: 1}},
	})

	services := n.Services()
	services[0].Port = 999

	again := n.Services()
	assert.Equal(t, uint32(10), again[0].Port, "mutating a returned slice must not affect the Node")
}
