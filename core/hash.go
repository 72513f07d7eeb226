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
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"
)

// Hash is a SHA-256 digest, rendered as lowercase hex on the wire per
// spec.md §6.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero digest (never a real hash).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// genesisPrevHash is the sentinel previous-hash for the genesis block,
// distinct from any real SHA-256 digest: spec.md §3 calls for
// previous_hash = 1 on the genesis block.
var genesisPrevHash = Hash{0x01}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != len(h) {
		return errors.New("core: hash must be 32 bytes")
	}
	copy(h[:], b)
	return nil
}

func canonicalUint64(v uint64) []byte {
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}

func canonicalFloat64(v float64) []byte {
	return canonicalUint64(math.Float64bits(v))
}
