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

// Package ncrypto isolates the RSA signing/verification and SHA-256 hashing
// primitives the node core depends on behind a small capability interface, so
// a test can swap in a deterministic provider without touching core logic.
package ncrypto

import "crypto/sha256"

// PublicKey is a stable serialized form of an RSA public key. It doubles as
// peer identity throughout the system: two keys are the same peer iff their
// serialized bytes are equal.
type PublicKey []byte

// PrivateKey is a stable serialized form of an RSA private key.
type PrivateKey []byte

// Provider is the pluggable cryptographic capability the node core needs:
// keypair generation, PKCS#1 v1.5 signing/verification, and SHA-256 hashing.
type Provider interface {
	GenerateKeyPair() (PublicKey, PrivateKey, error)
	Sign(priv PrivateKey, digest [32]byte) ([]byte, error)
	Verify(pub PublicKey, digest [32]byte, sig []byte) bool
	Hash(parts ...[]byte) [32]byte
}

// Hash concatenates parts and returns their SHA-256 digest. It is exposed as
// a free function too since hashing doesn't need a key and callers that only
// need Hash shouldn't have to thread a Provider through.
func Hash(parts ...[]byte) [32]byte {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
