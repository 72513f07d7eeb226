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

/* This file holds Peer's transaction and block gossip handlers: creating
and broadcasting a new transaction, accepting one gossiped in, and the
block acceptance / mining trigger pipeline (spec.md §4.3-§4.6). */
package core

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrUnknownPeer is returned by CreateTransaction when receiverID does not
// name a registered ring member.
var ErrUnknownPeer = errors.New("core: unknown receiver id")

// CreateTransaction builds, signs, applies, and gossips a new transaction
// from this peer to the ring member at receiverID (spec.md §4.2/§4.7's
// create_transaction). Applying it locally before broadcast means the
// sender's own view of its spendable balance never goes stale waiting on
// gossip to round-trip.
func (p *Peer) CreateTransaction(ctx context.Context, receiverID int, amount uint64) (*Transaction, error) {
	p.mu.Lock()
	if receiverID < 0 || receiverID >= len(p.ring) {
		p.mu.Unlock()
		return nil, ErrUnknownPeer
	}
	receiver := p.ring[receiverID]
	inputs := selectInputs(p.ledger.UTXOsFor(p.self.PublicKey), amount)
	p.mu.Unlock()

	if sum(inputs) < amount {
		return nil, ErrInsufficientInputs
	}

	tx, err := NewTransaction(p.provider, p.self.PublicKey, p.wallet.PrivateKey, receiver.PublicKey, amount, inputs)
	if err != nil {
		return nil, errors.Wrap(err, "core: building transaction")
	}

	p.mu.Lock()
	p.applyPendingLocked(tx)
	full := p.builder.Add(tx)
	ring := append([]RingEntry(nil), p.ring...)
	self := p.self
	p.mu.Unlock()

	p.broadcastTransaction(ctx, ring, self, tx)
	if full != nil {
		go p.mineAndBroadcast(context.Background(), full)
	}
	return tx, nil
}

// selectInputs greedily accumulates outs until their sum covers amount,
// stopping as soon as it does (spec.md §4.2 leaves input selection
// unspecified beyond "covers the amount").
func selectInputs(outs []UTXO, amount uint64) []UTXO {
	var total uint64
	var picked []UTXO
	for _, o := range outs {
		if total >= amount {
			break
		}
		picked = append(picked, o)
		total += o.Amount
	}
	return picked
}

func sum(outs []UTXO) uint64 {
	var total uint64
	for _, o := range outs {
		total += o.Amount
	}
	return total
}

// applyPendingLocked applies tx to the ledger, adjusts this peer's own
// wallet balance if it is a party to it, and records tx as pending-applied
// so a later block carrying it is neither re-verified nor re-applied
// (spec.md §4.6: "transactions already in pending are accepted without
// re-verification"). Callers must hold mu.
func (p *Peer) applyPendingLocked(tx *Transaction) {
	p.ledger.Apply(tx)
	if ownerKey(tx.Sender) == ownerKey(p.self.PublicKey) {
		p.wallet.adjustBalance(-int64(tx.Amount))
	}
	if ownerKey(tx.Receiver) == ownerKey(p.self.PublicKey) {
		p.wallet.adjustBalance(int64(tx.Amount))
	}
	p.pendingApplied[tx.ID] = struct{}{}
}

func (p *Peer) broadcastTransaction(ctx context.Context, ring []RingEntry, self RingEntry, tx *Transaction) {
	for _, entry := range ring {
		if ownerKey(entry.PublicKey) == ownerKey(self.PublicKey) {
			continue
		}
		if err := p.transport.SendTransaction(ctx, entry.Address, tx); err != nil {
			p.logger.Warn("broadcasting transaction", zap.Error(err), zap.String("addr", entry.Address))
		}
	}
}

// ReceiveTransaction is the gossip handler for an incoming transaction
// (spec.md §4.2/§4.3's validate_transaction + update_NBCs). A verified
// transaction is applied to the ledger immediately and queued for
// inclusion in the current block; a full batch is handed off to the miner.
func (p *Peer) ReceiveTransaction(ctx context.Context, tx *Transaction) error {
	p.mu.Lock()
	if err := tx.Verify(p.provider, p.chain, p.ledger); err != nil {
		p.mu.Unlock()
		return err
	}
	p.applyPendingLocked(tx)
	full := p.builder.Add(tx)
	p.mu.Unlock()

	if full != nil {
		go p.mineAndBroadcast(context.Background(), full)
	}
	return nil
}

// mineAndBroadcast seals txs into a new block, mines it, and on success
// appends and gossips it. It is always run off the caller's goroutine: it
// acquires miningMu for the duration of the search and must never be
// called while mu is held. Transactions of txs already carried by the chain
// are left out of the block. If mining is pre-empted because a foreign block
// was accepted first (during the search or before the result is committed),
// txs are requeued onto the builder so they are reconsidered once that
// foreign block has been applied.
func (p *Peer) mineAndBroadcast(ctx context.Context, txs []*Transaction) {
	p.miningMu.Lock()
	defer p.miningMu.Unlock()

	p.mu.RLock()
	tip := p.chain.Tip()
	startEpoch := p.chain.Epoch()
	nextIndex := tip.Index + 1
	prevHash := tip.Hash
	var unconfirmed []*Transaction
	for _, tx := range txs {
		if !p.chain.ContainsTransaction(tx.ID) {
			unconfirmed = append(unconfirmed, tx)
		}
	}
	p.mu.RUnlock()
	if len(unconfirmed) == 0 {
		return
	}
	txs = unconfirmed

	block := newUnsealedBlock(nextIndex, prevHash)
	block.Transactions = txs

	mined, err := p.miner.Mine(ctx, block, p.chain, startEpoch)
	if err != nil && !errors.Is(err, ErrMiningAborted) {
		p.logger.Error("mining block", zap.Error(err))
		return
	}

	p.mu.Lock()
	if err != nil || p.chain.Epoch() != startEpoch {
		p.builder.Requeue(txs)
		p.mu.Unlock()
		return
	}
	accepted := p.acceptBlockLocked(mined)
	ring := append([]RingEntry(nil), p.ring...)
	self := p.self
	p.mu.Unlock()

	if !accepted {
		return
	}
	for _, entry := range ring {
		if ownerKey(entry.PublicKey) == ownerKey(self.PublicKey) {
			continue
		}
		if err := p.transport.SendBlock(ctx, entry.Address, mined); err != nil {
			p.logger.Warn("broadcasting block", zap.Error(err), zap.String("addr", entry.Address))
		}
	}
}

// ReceiveBlock is the gossip handler for an incoming block (spec.md
// §4.6's validate_block). A block that extends the local tip is applied
// in place; one that doesn't match the tip is rejected with
// ErrPreviousHashMismatch and also triggers asynchronous conflict
// resolution, since it may simply mean this peer's view is behind.
func (p *Peer) ReceiveBlock(ctx context.Context, block *Block) error {
	p.mu.Lock()
	tip := p.chain.Tip()
	if block.PreviousHash != tip.Hash {
		p.mu.Unlock()
		go p.ResolveConflicts(context.Background())
		return ErrPreviousHashMismatch
	}
	if err := p.validateBlockLocked(block); err != nil {
		p.mu.Unlock()
		return err
	}
	p.acceptBlockLocked(block)
	p.mu.Unlock()
	return nil
}

// validateBlockLocked checks block's hash, difficulty, and every
// transaction it carries against the current ledger. A transaction already
// recorded in pendingApplied was verified and applied when it first
// arrived (via CreateTransaction/ReceiveTransaction); the shadow ledger
// already reflects its effect, so re-verifying it here would spuriously
// fail on its own already-spent inputs (spec.md §4.6). Callers must hold
// mu.
func (p *Peer) validateBlockLocked(block *Block) error {
	if block.computeHash(p.provider) != block.Hash {
		return ErrInvalidBlockHash
	}
	if !meetsDifficulty(block.Hash, p.difficulty) {
		return ErrDifficultyNotMet
	}
	shadow := NewUTXOLedger()
	for _, out := range p.ledger.byOwner {
		for _, u := range out {
			shadow.Credit(u.Receiver, u)
		}
	}
	for _, tx := range block.Transactions {
		if _, alreadyApplied := p.pendingApplied[tx.ID]; alreadyApplied {
			continue
		}
		if err := tx.Verify(p.provider, p.chain, shadow); err != nil {
			return errors.Wrap(ErrInvalidBlockTransaction, err.Error())
		}
		shadow.Apply(tx)
	}
	return nil
}

// acceptBlockLocked appends block to the chain, applies any transaction it
// carries that wasn't already applied on arrival, and drops any
// builder-pending transaction it confirms. A transaction found in
// pendingApplied was already credited/debited when it first arrived, so it
// is cleared from that set rather than applied a second time (spec.md
// §4.6). Callers must hold mu. It returns false if block failed the
// structural checks a caller should have already performed (defensive:
// never expected in practice).
func (p *Peer) acceptBlockLocked(block *Block) bool {
	if block.computeHash(p.provider) != block.Hash {
		return false
	}
	p.chain.Append(block)
	for _, tx := range block.Transactions {
		if _, alreadyApplied := p.pendingApplied[tx.ID]; alreadyApplied {
			delete(p.pendingApplied, tx.ID)
			continue
		}
		p.ledger.Apply(tx)
	}
	p.wallet.setBalance(int64(p.ledger.BalanceOf(p.self.PublicKey)))

	confirmed := make(map[Hash]bool, len(block.Transactions))
	for _, tx := range block.Transactions {
		confirmed[tx.ID] = true
	}
	remaining := p.builder.Drain()
	var unconfirmed []*Transaction
	for _, tx := range remaining {
		if !confirmed[tx.ID] {
			unconfirmed = append(unconfirmed, tx)
		}
	}
	p.builder.Requeue(unconfirmed)
	return true
}
