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

package core

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RegisterIncoming is the bootstrap-side handler for an incoming
// registration (spec.md §4.9 / the Python original's register_node_to_ring).
// It assigns the next sequential id and appends entry to the ring. Once the
// ring reaches n members, the bootstrap broadcasts it (together with the
// genesis chain) to every non-bootstrap peer via SendRing; callers should
// invoke RegisterIncoming then check the returned ringFull flag to decide
// whether to kick off that broadcast.
func (p *Peer) RegisterIncoming(entry RingEntry) (assignedID int, ringFull bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	assignedID = len(p.ring)
	p.ring = append(p.ring, entry)
	return assignedID, len(p.ring) == p.n
}

// BroadcastRing is called once by the bootstrap after the ring fills, to
// deliver the completed ring and genesis chain to every peer but itself.
// Once every peer has adopted the ring, it seeds each non-bootstrap peer
// with 100 coins via an ordinary gossiped transaction (spec.md §2/§4.9:
// "once all N peers have registered, seeds each non-bootstrap peer with
// 100 coins via normal transactions"). Seeding runs after the ring/genesis
// delivery loop completes so every receiver's chain and ledger already
// exist by the time the seed transaction arrives.
func (p *Peer) BroadcastRing(ctx context.Context) {
	p.mu.RLock()
	ring := append([]RingEntry(nil), p.ring...)
	chain := p.chain.Blocks()
	self := p.self
	p.mu.RUnlock()

	for _, entry := range ring {
		if ownerKey(entry.PublicKey) == ownerKey(self.PublicKey) {
			continue
		}
		if err := p.transport.SendRing(ctx, entry.Address, ring, chain); err != nil {
			p.logger.Warn("broadcasting ring", zap.Error(err), zap.String("addr", entry.Address))
		}
	}

	for id, entry := range ring {
		if ownerKey(entry.PublicKey) == ownerKey(self.PublicKey) {
			continue
		}
		if _, err := p.CreateTransaction(ctx, id, totalSupplyPerPeer); err != nil {
			p.logger.Warn("seeding peer balance", zap.Error(err), zap.Int("peer", id))
		}
	}
}

// SetRing adopts a ring and genesis chain delivered by the bootstrap
// (spec.md §4.9's set_ring). It rebuilds the ledger and wallet balance from
// scratch by replaying the chain's transactions, since this is the first
// chain state the peer has ever seen.
func (p *Peer) SetRing(ring []RingEntry, chain []*Block) error {
	if err := ValidateStructure(p.provider, chain, p.difficulty); err != nil {
		return errors.Wrap(err, "core: adopting bootstrap chain")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.ring = append([]RingEntry(nil), ring...)
	p.id = p.ringIndexOfLocked(p.self.PublicKey)
	p.chain = NewChain(chain[0])
	for _, b := range chain[1:] {
		p.chain.Append(b)
	}
	p.rebuildLedgerLocked()
	return nil
}

// rebuildLedgerLocked replays every transaction in the chain into a fresh
// ledger and reconciles the wallet's cached balance. It also clears
// pendingApplied: a ledger rebuilt from scratch already reflects every
// confirmed transaction, and any previously-pending one not in the new
// chain is no longer applied anywhere, so the set has nothing left to
// track. Callers must hold mu.
func (p *Peer) rebuildLedgerLocked() {
	p.ledger.Reset()
	p.pendingApplied = make(map[Hash]struct{})
	for _, b := range p.chain.Blocks() {
		for _, tx := range b.Transactions {
			p.ledger.Apply(tx)
		}
	}
	p.wallet.setBalance(int64(p.ledger.BalanceOf(p.self.PublicKey)))
}
