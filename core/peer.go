// Copyright 2021 Hailiang Zhao <hliangzhao@zju.edu.cn>
// This file is part of the lightChain.
//
// The lightChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The lightChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the lightChain. If not, see <http://www.gnu.org/licenses/>.

/* This file defines Peer: the per-node state and gossip handlers of
spec.md §3/§4. Peer owns the three-lock discipline from spec.md §5:

  - mu (the "main lock") guards id, ring, chain, ledger, builder and the
    wallet's cached balance.
  - miningMu serializes mining so a peer never runs two PoW searches at
    once.
  - resolveMu serializes conflict resolution.

Lock order is always an outer lock (miningMu or resolveMu) acquired before
mu, never the reverse, and mu is never held across hashing or network I/O:
every method below drops mu before calling into Miner or PeerTransport and
reacquires it only to commit the result. */
package core

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"noobcash/ncrypto"
)

// totalSupplyPerPeer is the per-peer share of the supply: the genesis
// coinbase mints totalSupplyPerPeer*N coins to the bootstrap, which then
// seeds each other peer with totalSupplyPerPeer coins.
const totalSupplyPerPeer = 100

// RingEntry identifies one peer: its public key (its identity throughout
// the system) and the network address other peers use to reach it.
type RingEntry struct {
	PublicKey ncrypto.PublicKey `json:"public_key"`
	Address   string            `json:"address"`
}

// PeerTransport is the gossip/RPC fabric a Peer is built against. spec.md
// treats the actual wire binding as an external-boundary concern; core
// only ever depends on this interface, never on a concrete transport, so
// tests can substitute an in-memory fake. See the transport package for
// the HTTP implementation.
type PeerTransport interface {
	// Register asks bootstrapAddr to admit self into the ring, returning
	// the id it was assigned. The bootstrap's handlers reply with the id
	// only; the ring and genesis chain arrive later through SendRing.
	Register(ctx context.Context, bootstrapAddr string, self RingEntry) (RegisterReply, error)
	// SendRing delivers the completed ring and genesis chain to addr, once
	// the bootstrap has admitted all N peers.
	SendRing(ctx context.Context, addr string, ring []RingEntry, chain []*Block) error
	// SendTransaction gossips tx to addr.
	SendTransaction(ctx context.Context, addr string, tx *Transaction) error
	// SendBlock gossips block to addr.
	SendBlock(ctx context.Context, addr string, block *Block) error
	// FetchChain retrieves addr's full chain, for conflict resolution.
	FetchChain(ctx context.Context, addr string) ([]*Block, error)
}

// RegisterReply is the bootstrap's answer to a registration request. The
// bootstrap fills only ID, for every registration including the one that
// completes the ring; the ring and genesis chain reach each peer through a
// later SendRing call. Peer.Bootstrap adopts Ring and Chain immediately if
// a transport does fill them.
type RegisterReply struct {
	ID    int        `json:"id"`
	Ring  []RingEntry `json:"ring,omitempty"`
	Chain []*Block    `json:"chain,omitempty"`
}

// Peer is one node's complete local state.
type Peer struct {
	mu        sync.RWMutex
	miningMu  sync.Mutex
	resolveMu sync.Mutex

	self       RingEntry
	id         int
	n          int
	capacity   int
	difficulty int

	provider  ncrypto.Provider
	transport PeerTransport
	logger    *zap.Logger

	wallet  *Wallet
	chain   *Chain
	ledger  *UTXOLedger
	builder *Builder
	miner   *Miner

	ring []RingEntry

	// pendingApplied holds the ids of transactions already applied to
	// ledger/wallet on arrival (via CreateTransaction/ReceiveTransaction)
	// but not yet confirmed by an accepted block. acceptBlockLocked and
	// validateBlockLocked consult it to tell such a transaction apart from
	// one seen for the first time inside a block (spec.md §4.6: a block's
	// already-pending transactions are applied at most once and are never
	// re-verified).
	pendingApplied map[Hash]struct{}
}

// NewBootstrapPeer constructs the distinguished peer that mints genesis
// and assigns ids to every other peer as it registers (spec.md §4.9). It
// is always id 0.
func NewBootstrapPeer(
	provider ncrypto.Provider,
	logger *zap.Logger,
	transport PeerTransport,
	selfAddr string,
	n, capacity, difficulty int,
) (*Peer, error) {
	wallet, err := NewWallet(provider)
	if err != nil {
		return nil, errors.Wrap(err, "core: generating bootstrap wallet")
	}

	p := &Peer{
		self:           RingEntry{PublicKey: wallet.PublicKey, Address: selfAddr},
		id:             0,
		n:              n,
		capacity:       capacity,
		difficulty:     difficulty,
		provider:       provider,
		transport:      transport,
		logger:         logger,
		wallet:         wallet,
		ledger:         NewUTXOLedger(),
		builder:        NewBuilder(capacity),
		miner:          NewMiner(provider, difficulty),
		ring:           []RingEntry{{PublicKey: wallet.PublicKey, Address: selfAddr}},
		pendingApplied: make(map[Hash]struct{}),
	}

	coinbase := NewCoinbaseTransaction(provider, wallet.PublicKey, totalSupplyPerPeer*uint64(n))
	genesis := newUnsealedBlock(1, genesisPrevHash)
	genesis.Transactions = []*Transaction{coinbase}
	genesis.Hash = genesis.computeHash(provider)
	p.chain = NewChain(genesis)
	p.ledger.Apply(coinbase)
	p.wallet.setBalance(int64(p.ledger.BalanceOf(wallet.PublicKey)))

	return p, nil
}

// NewPeer constructs a peer with a fresh wallet and no chain yet; call
// Bootstrap to register with the network's bootstrap peer and receive an
// id, ring, and genesis chain.
func NewPeer(
	provider ncrypto.Provider,
	logger *zap.Logger,
	transport PeerTransport,
	selfAddr string,
	capacity, difficulty int,
) (*Peer, error) {
	wallet, err := NewWallet(provider)
	if err != nil {
		return nil, errors.Wrap(err, "core: generating wallet")
	}
	return &Peer{
		self:           RingEntry{PublicKey: wallet.PublicKey, Address: selfAddr},
		capacity:       capacity,
		difficulty:     difficulty,
		provider:       provider,
		transport:      transport,
		logger:         logger,
		wallet:         wallet,
		ledger:         NewUTXOLedger(),
		builder:        NewBuilder(capacity),
		miner:          NewMiner(provider, difficulty),
		pendingApplied: make(map[Hash]struct{}),
	}, nil
}

// Bootstrap registers this peer with bootstrapAddr and, if the reply
// already carries a completed ring and chain, adopts them immediately.
// Otherwise the peer waits for a later SetRing call delivered by the
// bootstrap once registration completes (spec.md §4.9).
func (p *Peer) Bootstrap(ctx context.Context, bootstrapAddr string) error {
	reply, err := p.transport.Register(ctx, bootstrapAddr, p.self)
	if err != nil {
		return errors.Wrap(err, "core: registering with bootstrap")
	}
	p.mu.Lock()
	p.id = reply.ID
	p.mu.Unlock()

	if len(reply.Ring) == 0 {
		return nil
	}
	return p.SetRing(reply.Ring, reply.Chain)
}

// Self returns this peer's ring identity.
func (p *Peer) Self() RingEntry {
	return p.self
}

// ID returns this peer's assigned ring index.
func (p *Peer) ID() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

// Balance returns the peer's current spendable balance.
func (p *Peer) Balance() int64 {
	return p.wallet.Balance()
}

// RingIndexOf returns the ring index of pub, or -1 if pub is not a
// registered peer (the Go analogue of the Python original's find_id).
func (p *Peer) RingIndexOf(pub ncrypto.PublicKey) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ringIndexOfLocked(pub)
}

func (p *Peer) ringIndexOfLocked(pub ncrypto.PublicKey) int {
	for i, entry := range p.ring {
		if ownerKey(entry.PublicKey) == ownerKey(pub) {
			return i
		}
	}
	return -1
}

// Chain returns a snapshot of the accepted chain.
func (p *Peer) Chain() []*Block {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chain.Blocks()
}

// ChainLength returns the number of accepted blocks.
func (p *Peer) ChainLength() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chain.Len()
}

// PendingTransactions returns a snapshot of the builder's queue: transactions
// accepted locally that wait to be handed to the miner. A batch currently
// being mined is not included; a batch whose mining was pre-empted is
// queued again.
func (p *Peer) PendingTransactions() []*Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.builder.Pending()
}

// TipTransactions returns the transactions of the most recently accepted
// block, for the client-facing "last block" view (spec.md §6).
func (p *Peer) TipTransactions() []*Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Transaction(nil), p.chain.Tip().Transactions...)
}
