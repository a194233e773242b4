package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertServiceCreatesNode(t *testing.T) {
	tbl := New()

	created := tbl.InsertService(1, 10, 100, 1, 0)
	assert.True(t, created)
	assert.True(t, tbl.Exists(1))
	assert.False(t, tbl.IsPublished(1)) // InsertService never publishes

	created = tbl.InsertService(1, 11, 101, 1, 0)
	assert.False(t, created, "second service on the same node must not report creation")
}

func TestLookupPortPrefersHighestVersion(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)
	tbl.InsertService(1, 20, 100, 2, 0)

	port, ok := tbl.LookupPort(1, 100)
	require.True(t, ok)
	assert.Equal(t, uint32(20), port, "must prefer the v2 entry over v1")
}

func TestLookupServiceByPort(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)

	svc, ok := tbl.LookupService(1, 10)
	require.True(t, ok)
	assert.Equal(t, ServiceID(100), svc)

	_, ok = tbl.LookupService(1, 999)
	assert.False(t, ok)
}

func TestRemoveServiceReportsEmpty(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)
	tbl.InsertService(1, 11, 101, 1, 0)

	_, empty, ok := tbl.RemoveService(1, 10)
	require.True(t, ok)
	assert.False(t, empty, "node still has one service left")

	_, empty, ok = tbl.RemoveService(1, 11)
	require.True(t, ok)
	assert.True(t, empty, "last service removed")
}

func TestRemoveServiceUnknownNodeOrPort(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)

	_, _, ok := tbl.RemoveService(2, 10)
	assert.False(t, ok, "unknown node")

	_, _, ok = tbl.RemoveService(1, 999)
	assert.False(t, ok, "unknown port")
}

func TestLookupHidesUnpublishedNodes(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)

	_, ok := tbl.Lookup(1)
	assert.False(t, ok, "unpublished node must not be visible via Lookup")

	changed, err := tbl.SetPublished(1, true)
	require.NoError(t, err)
	assert.True(t, changed)

	view, ok := tbl.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, NodeID(1), view.ID)
	require.Len(t, view.Services, 1)
	assert.Equal(t, ServiceID(100), view.Services[0].ServiceID)
}

func TestSetPublishedIdempotent(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)

	changed, err := tbl.SetPublished(1, true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = tbl.SetPublished(1, true)
	require.NoError(t, err)
	assert.False(t, changed, "re-publishing an already-published node is a no-op")
}

func TestSetPublishedUnknownNode(t *testing.T) {
	tbl := New()
	_, err := tbl.SetPublished(99, true)
	assert.Error(t, err)
}

func TestEnumerateNodesOnlyPublished(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)
	tbl.InsertService(2, 20, 200, 1, 0)
	tbl.SetPublished(1, true)

	ids := tbl.EnumerateNodes()
	assert.Equal(t, []NodeID{1}, ids)
}

func TestRemoveDeletesNodeRecord(t *testing.T) {
	tbl := New()
	tbl.InsertService(1, 10, 100, 1, 0)
	tbl.SetPublished(1, true)

	tbl.Remove(1)

	assert.False(t, tbl.Exists(1))
	_, ok := tbl.Lookup(1)
	assert.False(t, ok)
}
