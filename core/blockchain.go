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

/* This file defines Chain: the ordered sequence of accepted blocks
(spec.md §3). Unlike the teacher's boltdb-backed BlockChain, Chain is a plain
in-memory slice guarded by the owning Peer's main lock; persistent storage is
an explicit spec Non-goal. Chain also owns the mining epoch counter — the
design.md-recorded resolution of the "cooperative mining cancellation"
open question in spec.md §9: an atomic counter bumped once per accepted
block, rather than a per-iteration tip-index comparison that would need to
reacquire the main lock on every nonce attempt. */
package core

import (
	"errors"
	"sync/atomic"

	"noobcash/ncrypto"
)

// Chain is the ordered sequence of accepted blocks B1, B2, ... Callers
// (core.Peer) are responsible for holding the main lock around every
// mutation: Chain itself only synchronizes its epoch counter, which is read
// lock-free by the miner.
type Chain struct {
	blocks []*Block
	epoch  atomic.Uint64
}

// NewChain returns a chain seeded with genesis as its sole block.
func NewChain(genesis *Block) *Chain {
	c := &Chain{blocks: []*Block{genesis}}
	return c
}

// Tip returns the chain's most recently accepted block.
func (c *Chain) Tip() *Block {
	return c.blocks[len(c.blocks)-1]
}

// Len returns the number of blocks in the chain.
func (c *Chain) Len() int {
	return len(c.blocks)
}

// Blocks returns a shallow copy of the chain's block slice.
func (c *Chain) Blocks() []*Block {
	cp := make([]*Block, len(c.blocks))
	copy(cp, c.blocks)
	return cp
}

// Append adds b to the chain and advances the mining epoch, signalling any
// in-flight miner that the tip has moved.
func (c *Chain) Append(b *Block) {
	c.blocks = append(c.blocks, b)
	c.epoch.Add(1)
}

// Epoch returns the current mining epoch. The miner samples this without
// acquiring the main lock on every nonce attempt; a change means some block
// has been accepted since the miner started and it must abort (spec.md
// §4.5/§5 "Cancellation").
func (c *Chain) Epoch() uint64 {
	return c.epoch.Load()
}

// ContainsTransaction reports whether any block in the chain carries a
// transaction with the given id — the "already on chain" duplicate check
// in Transaction.Verify (spec.md §4.2).
func (c *Chain) ContainsTransaction(id Hash) bool {
	for _, b := range c.blocks {
		if b.containsTransaction(id) {
			return true
		}
	}
	return false
}

// replaceWith swaps the chain's blocks wholesale (conflict resolution /
// genesis adoption) and advances the epoch so any in-flight miner aborts.
func (c *Chain) replaceWith(blocks []*Block) {
	c.blocks = blocks
	c.epoch.Add(1)
}

// ErrEmptyChain is returned by ValidateStructure when given no blocks.
var ErrEmptyChain = errors.New("core: chain has no blocks")

// ValidateStructure checks the purely structural chain invariants from
// spec.md §3/§8: index continuity, previous-hash linkage, recomputed block
// hashes, and difficulty satisfaction on every block but the genesis (the
// genesis is exempt from PoW — see original_source/Blockchain.py
// build_genesis, which seals it directly with no mining loop). It does not
// revalidate transactions; see Peer.SetRing and Peer.ResolveConflicts for that.
func ValidateStructure(provider ncrypto.Provider, blocks []*Block, difficulty int) error {
	if len(blocks) == 0 {
		return ErrEmptyChain
	}
	genesis := blocks[0]
	if genesis.Index != 1 || genesis.PreviousHash != genesisPrevHash {
		return errors.New("core: genesis block malformed")
	}
	if genesis.computeHash(provider) != genesis.Hash {
		return ErrInvalidBlockHash
	}
	for i := 1; i < len(blocks); i++ {
		b, prev := blocks[i], blocks[i-1]
		if b.Index != prev.Index+1 {
			return errors.New("core: chain index discontinuity")
		}
		if b.PreviousHash != prev.Hash {
			return ErrPreviousHashMismatch
		}
		if b.computeHash(provider) != b.Hash {
			return ErrInvalidBlockHash
		}
		if !meetsDifficulty(b.Hash, difficulty) {
			return ErrDifficultyNotMet
		}
	}
	return nil
}
