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
	"errors"
	"time"

	uuid "github.com/satori/go.uuid"

	"noobcash/ncrypto"
)

// ErrInsufficientInputs is returned when the caller-selected inputs don't
// cover the requested transfer amount.
var ErrInsufficientInputs = errors.New("core: selected inputs do not cover amount")

// UTXO is an unspent transaction output: an immutable record of value
// assigned to a public key. It is either present in the ledger under
// Receiver (unspent) or absent (spent).
type UTXO struct {
	ID            uuid.UUID        `json:"id"`
	TransactionID Hash             `json:"transaction_id"`
	Receiver      ncrypto.PublicKey `json:"receiver"`
	Amount        uint64           `json:"amount"`
}

// Transaction is a signed value-transfer record with explicit inputs and
// outputs, per spec.md §3.
type Transaction struct {
	ID        Hash             `json:"transaction_id"`
	Sender    ncrypto.PublicKey `json:"sender"`
	Receiver  ncrypto.PublicKey `json:"receiver"`
	Amount    uint64           `json:"amount"`
	Timestamp float64          `json:"timestamp"`
	Inputs    []UTXO           `json:"inputs"`
	Outputs   []UTXO           `json:"outputs"`
	Signature []byte           `json:"signature"`
}

// IsCoinbase reports whether tx is the genesis coinbase transaction: the
// sole exception to signature/input requirements (spec.md §3).
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Sender) == 0
}

// idInput returns the canonical byte sequence hashed to produce a
// transaction id: sender ∥ receiver ∥ amount ∥ timestamp (spec.md §6).
func (tx *Transaction) idInput() []byte {
	var buf bytes.Buffer
	buf.Write(tx.Sender)
	buf.Write(tx.Receiver)
	buf.Write(canonicalUint64(tx.Amount))
	buf.Write(canonicalFloat64(tx.Timestamp))
	return buf.Bytes()
}

// NewTransaction constructs, signs, and returns a value-transfer transaction
// from sender to receiver for amount, spending selectedInputs. It fails if
// the inputs don't cover amount, never partially spending them.
func NewTransaction(
	provider ncrypto.Provider,
	senderPub ncrypto.PublicKey, senderPriv ncrypto.PrivateKey,
	receiverPub ncrypto.PublicKey,
	amount uint64,
	selectedInputs []UTXO,
) (*Transaction, error) {
	var total uint64
	for _, in := range selectedInputs {
		total += in.Amount
	}
	if total < amount {
		return nil, ErrInsufficientInputs
	}

	tx := &Transaction{
		Sender:    senderPub,
		Receiver:  receiverPub,
		Amount:    amount,
		Timestamp: nowUnix(),
		Inputs:    selectedInputs,
	}
	tx.ID = provider.Hash(tx.idInput())

	if change := total - amount; change > 0 {
		tx.Outputs = append(tx.Outputs, UTXO{
			ID:            uuid.NewV4(),
			TransactionID: tx.ID,
			Receiver:      senderPub,
			Amount:        change,
		})
	}
	tx.Outputs = append(tx.Outputs, UTXO{
		ID:            uuid.NewV4(),
		TransactionID: tx.ID,
		Receiver:      receiverPub,
		Amount:        amount,
	})

	sig, err := provider.Sign(senderPriv, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.Signature = sig
	return tx, nil
}

// NewCoinbaseTransaction mints totalSupply coins to receiverPub with no
// inputs and no signature requirement. It is the sole exception described
// by spec.md §3: sender is the distinguished non-key sentinel (the empty
// public key).
func NewCoinbaseTransaction(provider ncrypto.Provider, receiverPub ncrypto.PublicKey, totalSupply uint64) *Transaction {
	tx := &Transaction{
		Receiver:  receiverPub,
		Amount:    totalSupply,
		Timestamp: nowUnix(),
	}
	tx.ID = provider.Hash(tx.idInput())
	tx.Outputs = []UTXO{{
		ID:            uuid.NewV4(),
		TransactionID: tx.ID,
		Receiver:      receiverPub,
		Amount:        totalSupply,
	}}
	return tx
}

var nowUnix = func() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
