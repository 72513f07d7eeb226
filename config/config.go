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

// Package config loads a node's runtime parameters the way the Python
// original does (load_dotenv + os.getenv in app.py/Node.py): an optional
// .env file layered under real environment variables, the latter always
// winning.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is one node's runtime parameters, per spec.md §6.
type Config struct {
	N                int    // total number of peers in the ring
	Capacity         int    // transactions per block, C
	MiningDifficulty int    // leading hex zeros required, D
	SelfAddress      string // this node's own host:port
	BootstrapAddress string // the bootstrap peer's host:port
	IsBootstrap      bool
}

// Load reads envFile (if non-empty and present) then the process
// environment, returning a populated Config or an error naming the first
// missing/malformed variable.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrap(err, "config: loading env file")
		}
	}

	n, err := getInt("N")
	if err != nil {
		return Config{}, err
	}
	capacity, err := getInt("CAPACITY")
	if err != nil {
		return Config{}, err
	}
	difficulty, err := getInt("MINING_DIFFICULTY")
	if err != nil {
		return Config{}, err
	}
	self := os.Getenv("SELF_ADDRESS")
	if self == "" {
		return Config{}, errors.New("config: SELF_ADDRESS is required")
	}
	bootstrap := os.Getenv("BOOTSTRAP_ADDRESS")
	isBootstrap := os.Getenv("IS_BOOTSTRAP") == "true"
	if bootstrap == "" && !isBootstrap {
		return Config{}, errors.New("config: BOOTSTRAP_ADDRESS is required for non-bootstrap nodes")
	}

	return Config{
		N:                n,
		Capacity:         capacity,
		MiningDifficulty: difficulty,
		SelfAddress:      self,
		BootstrapAddress: bootstrap,
		IsBootstrap:      isBootstrap,
	}, nil
}

func getInt(key string) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, errors.Errorf("config: %s is required", key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "config: %s must be an integer", key)
	}
	return v, nil
}
