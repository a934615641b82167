package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestManagerAssignsMonotonicRoomIDs(t *testing.T) {
	m := newTestManager(t, interactiveConfig())

	for i := 0; i < 5; i++ {
		id, created, err := m.JoinRoom("alice", fmt.Sprintf("room-%d", i))
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, uint64(i), id)
	}
	require.Equal(t, 5, m.RoomCount())
}

func TestManagerLookupUnknownID(t *testing.T) {
	m := newTestManager(t, interactiveConfig())

	_, err := m.Lookup(0)
	require.ErrorIs(t, err, ErrRoomNotFound)

	m.JoinRoom("alice", "duel")
	_, err = m.Lookup(0)
	require.NoError(t, err)
	_, err = m.Lookup(1)
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestManagerRejectsEmptyNames(t *testing.T) {
	m := newTestManager(t, interactiveConfig())

	_, _, err := m.JoinRoom("", "duel")
	require.Error(t, err)
	_, _, err = m.JoinRoom("alice", "")
	require.Error(t, err)
	require.Zero(t, m.RoomCount())
}

func TestManagerIsolatesRoomsByName(t *testing.T) {
	m := newTestManager(t, interactiveConfig())

	first, _, err := m.JoinRoom("alice", "duel-a")
	require.NoError(t, err)
	second, _, err := m.JoinRoom("alice", "duel-b")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	// Filling one room leaves the other waiting.
	_, _, err = m.JoinRoom("bob", "duel-a")
	require.NoError(t, err)

	a, err := m.Lookup(first)
	require.NoError(t, err)
	b, err := m.Lookup(second)
	require.NoError(t, err)
	require.Equal(t, PhasePlaying, a.Phase())
	require.Equal(t, PhaseWaiting, b.Phase())
}

func TestManagerReusesRoomByName(t *testing.T) {
	m := newTestManager(t, interactiveConfig())

	id, created, err := m.JoinRoom("alice", "duel")
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := m.JoinRoom("bob", "duel")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, id, again)
	require.Equal(t, 1, m.RoomCount())
}
