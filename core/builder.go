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

/* This file defines Builder: the mempool that accumulates verified
transactions into batches of exactly capacity C, per spec.md §4.4
(add_transaction_to_block / add_transactions_to_block in the Python
original). Builder itself does no locking or mining; Peer calls Add while
holding the main lock and, when a batch fills, releases the lock before
handing the batch to the Miner. */
package core

// Builder accumulates verified transactions awaiting inclusion in a block.
// Once Add brings the queue to capacity, a batch of exactly capacity
// transactions is handed back to the caller and removed from the queue.
// Requeue can leave capacity or more transactions queued; they are batched
// by the next Add.
type Builder struct {
	capacity int
	queue    []*Transaction
}

// NewBuilder returns a builder that fills batches of the given capacity.
func NewBuilder(capacity int) *Builder {
	return &Builder{capacity: capacity}
}

// Capacity returns the configured batch size C.
func (b *Builder) Capacity() int {
	return b.capacity
}

// Add appends tx to the queue. If the queue now holds capacity or more
// transactions, Add returns the first capacity of them as a full batch and
// keeps the rest queued; otherwise it returns nil.
func (b *Builder) Add(tx *Transaction) []*Transaction {
	b.queue = append(b.queue, tx)
	if len(b.queue) < b.capacity {
		return nil
	}
	batch := b.queue[:b.capacity:b.capacity]
	b.queue = append([]*Transaction(nil), b.queue[b.capacity:]...)
	return batch
}

// Pending returns a snapshot of the not-yet-batched queue.
func (b *Builder) Pending() []*Transaction {
	cp := make([]*Transaction, len(b.queue))
	copy(cp, b.queue)
	return cp
}

// Drain empties the queue and returns everything it held. Used when
// conflict resolution adopts a foreign chain: transactions still pending
// locally are re-validated against the new chain state rather than lost
// (the resolution adopted for spec.md §9's "stranded pending transactions"
// open question).
func (b *Builder) Drain() []*Transaction {
	out := b.queue
	b.queue = nil
	return out
}

// Requeue puts txs back at the front of the queue, ahead of anything
// already waiting. Used after a batch was handed off for mining but the
// mine was pre-empted by a faster peer's block, so those transactions
// never made it onto the chain.
func (b *Builder) Requeue(txs []*Transaction) {
	if len(txs) == 0 {
		return
	}
	b.queue = append(append([]*Transaction{}, txs...), b.queue...)
}
