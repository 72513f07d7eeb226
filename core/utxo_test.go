package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noobcash/ncrypto"
)

func TestUTXOLedgerApplyCoinbase(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	w := newTestWallets(t, provider, 1)[0]

	ledger := NewUTXOLedger()
	tx := NewCoinbaseTransaction(provider, w.PublicKey, 300)
	ledger.Apply(tx)

	require.Equal(t, uint64(300), ledger.BalanceOf(w.PublicKey))
	require.Equal(t, uint64(300), ledger.Total())
}

func TestUTXOLedgerApplyTransferMovesBalanceWithChange(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	ledger := NewUTXOLedger()
	coinbase := NewCoinbaseTransaction(provider, alice.PublicKey, 100)
	ledger.Apply(coinbase)

	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, ledger.UTXOsFor(alice.PublicKey))
	require.NoError(t, err)
	ledger.Apply(tx)

	require.Equal(t, uint64(60), ledger.BalanceOf(alice.PublicKey))
	require.Equal(t, uint64(40), ledger.BalanceOf(bob.PublicKey))
	require.Equal(t, uint64(100), ledger.Total())
}

func TestUTXOLedgerDebitRemovesSpentOutput(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	w := newTestWallets(t, provider, 1)[0]
	ledger := NewUTXOLedger()
	id := newTestUUID()
	ledger.Credit(w.PublicKey, UTXO{ID: id, Amount: 10})

	require.True(t, ledger.Has(w.PublicKey, id))
	require.True(t, ledger.Debit(w.PublicKey, id))
	require.False(t, ledger.Has(w.PublicKey, id))
	require.False(t, ledger.Debit(w.PublicKey, id))
}
