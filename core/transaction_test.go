package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noobcash/ncrypto"
)

func newTestWallets(t *testing.T, provider ncrypto.Provider, n int) []*Wallet {
	t.Helper()
	wallets := make([]*Wallet, n)
	for i := range wallets {
		w, err := NewWallet(provider)
		require.NoError(t, err)
		wallets[i] = w
	}
	return wallets
}

func TestNewTransactionWithChangeProducesTwoOutputs(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	input := UTXO{ID: newTestUUID(), TransactionID: Hash{0x1}, Receiver: alice.PublicKey, Amount: 100}
	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, []UTXO{input})
	require.NoError(t, err)

	require.Len(t, tx.Outputs, 2)
	require.Equal(t, uint64(60), tx.Outputs[0].Amount)
	require.True(t, bytesEqualPK(tx.Outputs[0].Receiver, alice.PublicKey))
	require.Equal(t, uint64(40), tx.Outputs[1].Amount)
	require.True(t, bytesEqualPK(tx.Outputs[1].Receiver, bob.PublicKey))
	require.True(t, provider.Verify(alice.PublicKey, tx.ID, tx.Signature))
}

func TestNewTransactionExactAmountProducesOneOutput(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	input := UTXO{ID: newTestUUID(), TransactionID: Hash{0x1}, Receiver: alice.PublicKey, Amount: 40}
	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, []UTXO{input})
	require.NoError(t, err)
	require.Len(t, tx.Outputs, 1)
	require.Equal(t, uint64(40), tx.Outputs[0].Amount)
}

func TestNewTransactionInsufficientInputs(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	input := UTXO{ID: newTestUUID(), TransactionID: Hash{0x1}, Receiver: alice.PublicKey, Amount: 10}
	_, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, []UTXO{input})
	require.ErrorIs(t, err, ErrInsufficientInputs)
}

func TestCoinbaseTransactionIsRecognized(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 1)
	tx := NewCoinbaseTransaction(provider, wallets[0].PublicKey, 300)
	require.True(t, tx.IsCoinbase())
	require.Len(t, tx.Outputs, 1)
	require.Equal(t, uint64(300), tx.Outputs[0].Amount)
}

func bytesEqualPK(a, b ncrypto.PublicKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
