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

/* This file implements conflict resolution, spec.md §4.8's "longest valid
chain wins" rule (resolve_conflicts / recalculate_NBCs in the Python
original). resolveMu ensures a peer never runs two resolutions
concurrently; it is always the outer lock, acquired before mu, and dropped
before any network I/O resumes the next round. */
package core

import (
	"context"

	"go.uber.org/zap"
)

// ResolveConflicts fetches every ring peer's chain, adopts the longest one
// that validates (structurally and transaction-by-transaction) and is
// strictly longer than the local chain. It is a no-op if no fetched chain
// beats the local one.
func (p *Peer) ResolveConflicts(ctx context.Context) {
	p.resolveMu.Lock()
	defer p.resolveMu.Unlock()

	p.mu.RLock()
	ring := append([]RingEntry(nil), p.ring...)
	self := p.self
	localLen := p.chain.Len()
	p.mu.RUnlock()

	var winner []*Block
	winnerLen := localLen

	for _, entry := range ring {
		if ownerKey(entry.PublicKey) == ownerKey(self.PublicKey) {
			continue
		}
		remote, err := p.transport.FetchChain(ctx, entry.Address)
		if err != nil {
			p.logger.Warn("fetching chain for conflict resolution", zap.Error(err), zap.String("addr", entry.Address))
			continue
		}
		if len(remote) <= winnerLen {
			continue
		}
		if err := ValidateStructure(p.provider, remote, p.difficulty); err != nil {
			p.logger.Warn("rejecting invalid remote chain", zap.Error(err), zap.String("addr", entry.Address))
			continue
		}
		if !p.validateChainTransactionsLocked(remote) {
			continue
		}
		winner, winnerLen = remote, len(remote)
	}

	if winner == nil {
		return
	}

	p.mu.Lock()
	stranded := p.builder.Drain()
	p.chain.replaceWith(winner)
	p.rebuildLedgerLocked()
	confirmed := p.confirmedSetLocked()
	var survivors []*Transaction
	for _, tx := range stranded {
		if confirmed[tx.ID] {
			continue
		}
		if err := tx.Verify(p.provider, p.chain, p.ledger); err == nil {
			p.applyPendingLocked(tx)
			survivors = append(survivors, tx)
		}
	}
	p.builder.Requeue(survivors)
	p.mu.Unlock()

	p.logger.Info("adopted longer chain", zap.Int("length", winnerLen))
}

// validateChainTransactionsLocked replays remote's transactions against a
// scratch ledger to confirm every one is individually valid, without
// touching this peer's live chain or ledger. It takes no lock: besides its
// own scratch state it reads only p.provider, which never changes after
// construction, so it does not need to serialize against mu.
func (p *Peer) validateChainTransactionsLocked(remote []*Block) bool {
	shadowChain := NewChain(remote[0])
	shadowLedger := NewUTXOLedger()
	for _, tx := range remote[0].Transactions {
		shadowLedger.Apply(tx)
	}
	for _, b := range remote[1:] {
		for _, tx := range b.Transactions {
			if !tx.IsCoinbase() {
				if err := tx.Verify(p.provider, shadowChain, shadowLedger); err != nil {
					return false
				}
			}
			shadowLedger.Apply(tx)
		}
		shadowChain.Append(b)
	}
	return true
}

// confirmedSetLocked returns the set of transaction ids present in the
// (just-adopted) chain. Callers must hold mu.
func (p *Peer) confirmedSetLocked() map[Hash]bool {
	out := make(map[Hash]bool)
	for _, b := range p.chain.Blocks() {
		for _, tx := range b.Transactions {
			out[tx.ID] = true
		}
	}
	return out
}
