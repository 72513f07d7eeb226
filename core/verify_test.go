package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"noobcash/ncrypto"
)

func TestVerifyAcceptsWellFormedTransaction(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	ledger := NewUTXOLedger()
	coinbase := NewCoinbaseTransaction(provider, alice.PublicKey, 100)
	ledger.Apply(coinbase)

	genesis := newUnsealedBlock(1, genesisPrevHash)
	genesis.Transactions = []*Transaction{coinbase}
	genesis.Hash = genesis.computeHash(provider)
	chain := NewChain(genesis)

	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, ledger.UTXOsFor(alice.PublicKey))
	require.NoError(t, err)

	require.NoError(t, tx.Verify(provider, chain, ledger))
}

func TestVerifyRejectsDoubleSpend(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	ledger := NewUTXOLedger()
	genesis := newUnsealedBlock(1, genesisPrevHash)
	genesis.Hash = genesis.computeHash(provider)
	chain := NewChain(genesis)

	input := UTXO{ID: newTestUUID(), Receiver: alice.PublicKey, Amount: 40}
	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, []UTXO{input})
	require.NoError(t, err)

	require.ErrorIs(t, tx.Verify(provider, chain, ledger), ErrDoubleSpend)
}

func TestVerifyRejectsDuplicateOnChain(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	ledger := NewUTXOLedger()
	coinbase := NewCoinbaseTransaction(provider, alice.PublicKey, 100)
	ledger.Apply(coinbase)

	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, ledger.UTXOsFor(alice.PublicKey))
	require.NoError(t, err)

	genesis := newUnsealedBlock(1, genesisPrevHash)
	genesis.Transactions = []*Transaction{coinbase, tx}
	genesis.Hash = genesis.computeHash(provider)
	chain := NewChain(genesis)

	require.ErrorIs(t, tx.Verify(provider, chain, ledger), ErrDuplicateTransaction)
}

func TestVerifyRejectsTamperedAmount(t *testing.T) {
	provider := ncrypto.NewRSAProvider()
	wallets := newTestWallets(t, provider, 2)
	alice, bob := wallets[0], wallets[1]

	ledger := NewUTXOLedger()
	coinbase := NewCoinbaseTransaction(provider, alice.PublicKey, 100)
	ledger.Apply(coinbase)

	genesis := newUnsealedBlock(1, genesisPrevHash)
	genesis.Hash = genesis.computeHash(provider)
	chain := NewChain(genesis)

	tx, err := NewTransaction(provider, alice.PublicKey, alice.PrivateKey, bob.PublicKey, 40, ledger.UTXOsFor(alice.PublicKey))
	require.NoError(t, err)

	tx.Outputs[len(tx.Outputs)-1].Amount = 9000
	require.ErrorIs(t, tx.Verify(provider, chain, ledger), ErrInvalidOutputs)
}
