package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noobcash/ncrypto"
)

func TestComputeHashIsDeterministic(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	w := newTestWallets(t, provider, 1)[0]
	tx := NewCoinbaseTransaction(provider, w.PublicKey, 300)

	b1 := newUnsealedBlock(1, genesisPrevHash)
	b1.Transactions = []*Transaction{tx}
	b2 := newUnsealedBlock(1, genesisPrevHash)
	b2.Transactions = []*Transaction{tx}

	require.Equal(t, b1.computeHash(provider), b2.computeHash(provider))
}

func TestComputeHashChangesWithNonce(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	w := newTestWallets(t, provider, 1)[0]
	tx := NewCoinbaseTransaction(provider, w.PublicKey, 300)

	b := newUnsealedBlock(1, genesisPrevHash)
	b.Transactions = []*Transaction{tx}
	b.Nonce = []byte{1, 2, 3, 4}
	h1 := b.computeHash(provider)
	b.Nonce = []byte{1, 2, 3, 5}
	h2 := b.computeHash(provider)

	require.NotEqual(t, h1, h2)
}

func TestMeetsDifficulty(t *testing.T) {
	var h Hash
	require.True(t, meetsDifficulty(h, 0))
	require.True(t, meetsDifficulty(h, 64))

	h[0] = 0x01
	require.False(t, meetsDifficulty(h, 2))
	require.True(t, meetsDifficulty(h, 1))
}

func TestContainsTransaction(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	w := newTestWallets(t, provider, 1)[0]
	tx := NewCoinbaseTransaction(provider, w.PublicKey, 300)
	b := newUnsealedBlock(1, genesisPrevHash)
	b.Transactions = []*Transaction{tx}

	require.True(t, b.containsTransaction(tx.ID))
	require.False(t, b.containsTransaction(Hash{0xFF}))
}
