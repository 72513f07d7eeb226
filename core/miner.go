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

/* This file defines Miner: the proof-of-work search described in spec.md
§4.5. Mining never holds the main lock: it only samples Chain.Epoch()
lock-free between attempts, aborting as soon as some other block has been
accepted while it searched (spec.md §5 "Cancellation" and §9's mining
epoch design decision). */
package core

import (
	"context"
	"crypto/rand"

	"github.com/pkg/errors"

	"noobcash/ncrypto"
)

// ErrMiningAborted is returned by Mine when the chain's tip moved (a
// foreign block was accepted) or ctx was cancelled before a valid nonce was
// found.
var ErrMiningAborted = errors.New("core: mining aborted, tip advanced")

// Miner repeatedly samples a nonce for a block until its hash satisfies the
// configured difficulty.
type Miner struct {
	provider   ncrypto.Provider
	difficulty int
}

// NewMiner returns a miner targeting the given leading-hex-zero difficulty.
func NewMiner(provider ncrypto.Provider, difficulty int) *Miner {
	return &Miner{provider: provider, difficulty: difficulty}
}

// Mine searches for a nonce that makes block's hash satisfy the miner's
// difficulty, sealing block.Nonce and block.Hash in place on success. It
// aborts with ErrMiningAborted as soon as chain's epoch no longer matches
// startEpoch (meaning some other block was accepted onto chain while this
// search was running) or ctx is cancelled.
func (m *Miner) Mine(ctx context.Context, block *Block, chain *Chain, startEpoch uint64) (*Block, error) {
	nonce := make([]byte, 4)
	for {
		select {
		case <-ctx.Done():
			return nil, ErrMiningAborted
		default:
		}
		if chain.Epoch() != startEpoch {
			return nil, ErrMiningAborted
		}

		if _, err := rand.Read(nonce); err != nil {
			return nil, errors.Wrap(err, "core: reading random nonce")
		}
		block.Nonce = append([]byte(nil), nonce...)
		h := block.computeHash(m.provider)
		if meetsDifficulty(h, m.difficulty) {
			block.Hash = h
			return block, nil
		}
	}
}
