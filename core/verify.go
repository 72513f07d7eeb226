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
	"bytes"

	"noobcash/ncrypto"
)

// Verify checks tx against the spendability rules of spec.md §4.2: its id
// and signature are self-consistent, it is not already confirmed on chain,
// every input it claims to spend is actually unspent for the sender, and
// its outputs are shaped correctly (an optional change output returned to
// the sender followed by the payment output to the receiver, summing back
// to the spent inputs).
//
// It does not mutate anything and does not itself serialize conflicting
// concurrent calls; the caller (Peer) is expected to hold the main lock.
func (tx *Transaction) Verify(provider ncrypto.Provider, chain *Chain, ledger *UTXOLedger) error {
	if tx.ID != provider.Hash(tx.idInput()) {
		return ErrInvalidSignature
	}
	if !provider.Verify(tx.Sender, tx.ID, tx.Signature) {
		return ErrInvalidSignature
	}
	if chain.ContainsTransaction(tx.ID) {
		return ErrDuplicateTransaction
	}

	var inputTotal uint64
	for _, in := range tx.Inputs {
		if !ledger.Has(tx.Sender, in.ID) {
			return ErrDoubleSpend
		}
		inputTotal += in.Amount
	}
	if inputTotal < tx.Amount {
		return ErrInvalidOutputs
	}

	change := inputTotal - tx.Amount
	wantOutputs := 1
	if change > 0 {
		wantOutputs = 2
	}
	if len(tx.Outputs) != wantOutputs {
		return ErrInvalidOutputs
	}
	if change > 0 {
		out := tx.Outputs[0]
		if out.Amount != change || !bytes.Equal(out.Receiver, tx.Sender) {
			return ErrInvalidOutputs
		}
	}
	payment := tx.Outputs[len(tx.Outputs)-1]
	if payment.Amount != tx.Amount || !bytes.Equal(payment.Receiver, tx.Receiver) {
		return ErrInvalidOutputs
	}
	return nil
}
