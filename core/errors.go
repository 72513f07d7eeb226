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

import "errors"

// The error kinds the core distinguishes, per spec.md §7. None of these are
// fatal: callers either swallow them after logging or surface a bool/HTTP
// status.
var (
	ErrInvalidSignature      = errors.New("core: invalid transaction signature")
	ErrDuplicateTransaction  = errors.New("core: transaction already on chain")
	ErrDoubleSpend           = errors.New("core: input is not in the ledger")
	ErrInvalidOutputs        = errors.New("core: outputs do not match amount/change")
	ErrInvalidBlockHash      = errors.New("core: block hash does not match its fields")
	ErrDifficultyNotMet      = errors.New("core: block hash does not meet difficulty")
	ErrPreviousHashMismatch  = errors.New("core: block does not extend the local tip")
	ErrInvalidBlockTransaction = errors.New("core: block contains an invalid transaction")
)
