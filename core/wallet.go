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

/* This file defines the Wallet: a peer's RSA keypair and its balance cache. */
package core

import (
	"sync/atomic"

	"noobcash/ncrypto"
)

// Wallet holds a peer's keypair and a convenience cache of its balance. The
// public key doubles as the peer's identity throughout the system, so there
// is no separate address or address-hashing step.
type Wallet struct {
	PublicKey  ncrypto.PublicKey
	PrivateKey ncrypto.PrivateKey

	balance int64 // accessed via atomic; see Balance/setBalance/adjustBalance
}

// NewWallet generates a fresh RSA-2048 keypair via provider.
func NewWallet(provider ncrypto.Provider) (*Wallet, error) {
	pub, priv, err := provider.GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	return &Wallet{PublicKey: pub, PrivateKey: priv}, nil
}

// Balance returns the wallet's cached balance. The ledger's Apply does not
// update it; Peer keeps it equal to sum(NBCs[wallet.PublicKey].amount) via
// adjustBalance and setBalance.
func (w *Wallet) Balance() int64 {
	return atomic.LoadInt64(&w.balance)
}

// setBalance overwrites the cached balance with a value read from the
// ledger (bootstrap peer construction, every accepted block, and every
// ledger rebuild).
func (w *Wallet) setBalance(v int64) {
	atomic.StoreInt64(&w.balance, v)
}

// adjustBalance applies a signed delta to the cached balance.
func (w *Wallet) adjustBalance(delta int64) {
	atomic.AddInt64(&w.balance, delta)
}
