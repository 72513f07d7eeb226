package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderAddReturnsBatchAtCapacity(t *testing.T) {
	b := NewBuilder(2)
	require.Nil(t, b.Add(&Transaction{ID: Hash{1}}))
	require.Len(t, b.Pending(), 1)

	batch := b.Add(&Transaction{ID: Hash{2}})
	require.Len(t, batch, 2)
	require.Empty(t, b.Pending())
}

func TestBuilderDrainEmptiesQueue(t *testing.T) {
	b := NewBuilder(5)
	b.Add(&Transaction{ID: Hash{1}})
	b.Add(&Transaction{ID: Hash{2}})

	drained := b.Drain()
	require.Len(t, drained, 2)
	require.Empty(t, b.Pending())
}

func TestBuilderRequeuePrependsTransactions(t *testing.T) {
	b := NewBuilder(5)
	b.Add(&Transaction{ID: Hash{3}})
	b.Requeue([]*Transaction{{ID: Hash{1}}, {ID: Hash{2}}})

	pending := b.Pending()
	require.Len(t, pending, 3)
	require.Equal(t, Hash{1}, pending[0].ID)
	require.Equal(t, Hash{2}, pending[1].ID)
	require.Equal(t, Hash{3}, pending[2].ID)
}
