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
	"strings"

	"noobcash/ncrypto"
)

// Block is an ordered batch of at most C transactions, linked to its
// predecessor by hash (spec.md §3).
type Block struct {
	Index        uint64         `json:"index"`
	PreviousHash Hash           `json:"previous_hash"`
	Timestamp    float64        `json:"timestamp"`
	Transactions []*Transaction `json:"transactions"`
	Nonce        []byte         `json:"nonce"`
	Hash         Hash           `json:"hash"`
}

// serializeUTXO returns a fixed-field-order, length-implicit encoding of a
// UTXO for hashing purposes: it need not be parseable back, only
// deterministic across producer and verifier (spec.md §6/§9).
func serializeUTXO(u UTXO) []byte {
	var buf bytes.Buffer
	buf.Write(u.ID.Bytes())
	buf.Write(u.TransactionID[:])
	buf.Write(u.Receiver)
	buf.Write(canonicalUint64(u.Amount))
	return buf.Bytes()
}

// serializeTransaction is the canonical encoding of a transaction used when
// hashing the block's transaction list.
func serializeTransaction(tx *Transaction) []byte {
	var buf bytes.Buffer
	buf.Write(tx.ID[:])
	buf.Write(tx.Sender)
	buf.Write(tx.Receiver)
	buf.Write(canonicalUint64(tx.Amount))
	buf.Write(canonicalFloat64(tx.Timestamp))
	buf.Write(canonicalUint64(uint64(len(tx.Inputs))))
	for _, in := range tx.Inputs {
		buf.Write(serializeUTXO(in))
	}
	buf.Write(canonicalUint64(uint64(len(tx.Outputs))))
	for _, out := range tx.Outputs {
		buf.Write(serializeUTXO(out))
	}
	buf.Write(canonicalUint64(uint64(len(tx.Signature))))
	buf.Write(tx.Signature)
	return buf.Bytes()
}

// serializeTransactions is the "serialize(transactions)" term of the block
// hash formula in spec.md §3/§6: a length-prefixed concatenation of each
// transaction's canonical encoding.
func serializeTransactions(txs []*Transaction) []byte {
	var buf bytes.Buffer
	buf.Write(canonicalUint64(uint64(len(txs))))
	for _, tx := range txs {
		enc := serializeTransaction(tx)
		buf.Write(canonicalUint64(uint64(len(enc))))
		buf.Write(enc)
	}
	return buf.Bytes()
}

// computeHash recomputes b's hash from its fields, per spec.md §3:
// SHA256(index ∥ previous_hash ∥ timestamp ∥ serialize(transactions) ∥ nonce).
func (b *Block) computeHash(provider ncrypto.Provider) Hash {
	return provider.Hash(
		canonicalUint64(b.Index),
		b.PreviousHash[:],
		canonicalFloat64(b.Timestamp),
		serializeTransactions(b.Transactions),
		b.Nonce,
	)
}

// meetsDifficulty reports whether h begins with difficulty leading hex
// zeros.
func meetsDifficulty(h Hash, difficulty int) bool {
	return strings.HasPrefix(h.String(), strings.Repeat("0", difficulty))
}

// newUnsealedBlock returns a fresh current_block extending prev, with no
// transactions and no nonce/hash yet — it becomes valid only once the miner
// finds a nonce (or, for genesis, is sealed directly with no PoW).
func newUnsealedBlock(index uint64, previousHash Hash) *Block {
	return &Block{
		Index:        index,
		PreviousHash: previousHash,
		Transactions: make([]*Transaction, 0),
	}
}

// containsTransaction reports whether any transaction in b has the given id.
func (b *Block) containsTransaction(id Hash) bool {
	for _, tx := range b.Transactions {
		if tx.ID == id {
			return true
		}
	}
	return false
}
