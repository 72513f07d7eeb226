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

/* This file defines the UTXO ledger (spec.md §3 "NBCs"): the per-peer mapping
from public key to its unspent outputs, kept eventually consistent with the
accepted chain plus locally accepted pending transactions. Unlike the
teacher's boltdb-backed UTXOSet, this is a plain in-memory map guarded by the
owning Peer's main lock (persistent storage is an explicit spec Non-goal). */
package core

import (
	uuid "github.com/satori/go.uuid"

	"noobcash/ncrypto"
)

// UTXOLedger maps a public key to its unspent outputs. Callers (core.Peer)
// are responsible for holding the main lock around every call: the ledger
// itself does no locking.
type UTXOLedger struct {
	byOwner map[string][]UTXO
}

// NewUTXOLedger returns an empty ledger.
func NewUTXOLedger() *UTXOLedger {
	return &UTXOLedger{byOwner: make(map[string][]UTXO)}
}

func ownerKey(pub ncrypto.PublicKey) string {
	return string(pub)
}

// Reset empties the ledger. Used by conflict resolution before replaying a
// newly adopted chain from scratch.
func (l *UTXOLedger) Reset() {
	l.byOwner = make(map[string][]UTXO)
}

// Credit appends an unspent output to owner's set.
func (l *UTXOLedger) Credit(owner ncrypto.PublicKey, out UTXO) {
	key := ownerKey(owner)
	l.byOwner[key] = append(l.byOwner[key], out)
}

// Debit removes the unspent output identified by id from owner's set. It
// reports whether the output was found (and thus removed).
func (l *UTXOLedger) Debit(owner ncrypto.PublicKey, id uuid.UUID) bool {
	key := ownerKey(owner)
	outs := l.byOwner[key]
	for i, o := range outs {
		if o.ID == id {
			l.byOwner[key] = append(outs[:i], outs[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether owner currently has the unspent output identified by
// id. Used by Transaction.Verify to check that every input is spendable.
func (l *UTXOLedger) Has(owner ncrypto.PublicKey, id uuid.UUID) bool {
	for _, o := range l.byOwner[ownerKey(owner)] {
		if o.ID == id {
			return true
		}
	}
	return false
}

// UTXOsFor returns a snapshot of owner's unspent outputs.
func (l *UTXOLedger) UTXOsFor(owner ncrypto.PublicKey) []UTXO {
	outs := l.byOwner[ownerKey(owner)]
	cp := make([]UTXO, len(outs))
	copy(cp, outs)
	return cp
}

// BalanceOf sums the amounts of owner's unspent outputs.
func (l *UTXOLedger) BalanceOf(owner ncrypto.PublicKey) uint64 {
	var total uint64
	for _, o := range l.byOwner[ownerKey(owner)] {
		total += o.Amount
	}
	return total
}

// Total sums every unspent output in the ledger, across all owners. Used to
// check the `sum over all pk of sum(NBCs[pk])` = 100*N invariant (spec.md
// §8) in tests.
func (l *UTXOLedger) Total() uint64 {
	var total uint64
	for _, outs := range l.byOwner {
		for _, o := range outs {
			total += o.Amount
		}
	}
	return total
}

// Apply mutates the ledger according to tx per spec.md §4.3: remove tx's
// inputs from the sender's set (matched by UTXO id); if tx has a change
// output, credit it back to the sender; always credit the final output to
// the receiver. It does not touch Wallet.balance — see Peer.applyPendingLocked
// for that, since the ledger has no notion of "self".
func (l *UTXOLedger) Apply(tx *Transaction) {
	for _, in := range tx.Inputs {
		l.Debit(tx.Sender, in.ID)
	}
	if len(tx.Outputs) == 2 {
		l.Credit(tx.Sender, tx.Outputs[0])
	}
	l.Credit(tx.Receiver, tx.Outputs[len(tx.Outputs)-1])
}
