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

// Command noobcashd wires together one node's config, wallet, chain and
// HTTP transport and joins it to the ring: the bootstrap peer mints
// genesis and waits for N-1 registrations, every other peer registers
// with it and waits for the ring and genesis chain to arrive.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"noobcash/config"
	"noobcash/core"
	"noobcash/ncrypto"
	"noobcash/transport"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("NOOBCASH_ENV_FILE"))
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}

	provider := ncrypto.NewRSAProvider()
	client := transport.NewClient()

	var peer *core.Peer
	if cfg.IsBootstrap {
		peer, err = core.NewBootstrapPeer(provider, logger, client, cfg.SelfAddress, cfg.N, cfg.Capacity, cfg.MiningDifficulty)
	} else {
		peer, err = core.NewPeer(provider, logger, client, cfg.SelfAddress, cfg.Capacity, cfg.MiningDifficulty)
	}
	if err != nil {
		logger.Fatal("constructing peer", zap.Error(err))
	}

	server := transport.NewServer(peer, logger, cfg.IsBootstrap)
	httpServer := &http.Server{Addr: cfg.SelfAddress, Handler: server.Router()}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", cfg.SelfAddress), zap.Bool("bootstrap", cfg.IsBootstrap))

	if !cfg.IsBootstrap {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := peer.Bootstrap(ctx, cfg.BootstrapAddress)
		cancel()
		if err != nil {
			logger.Fatal("registering with bootstrap", zap.Error(err))
		}
		logger.Info("registered", zap.Int("id", peer.ID()))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
}
