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

package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"noobcash/core"
)

// Server exposes a Peer over HTTP, implementing every endpoint in spec.md
// §6: the peer-to-peer gossip/registration RPCs and the client-facing
// transaction/balance/chain-inspection endpoints.
type Server struct {
	peer   *core.Peer
	logger *zap.Logger
	router *mux.Router
}

// NewServer builds the request router for peer. isBootstrap controls
// whether /registerNode/ is served: only the bootstrap peer admits new
// ring members.
func NewServer(peer *core.Peer, logger *zap.Logger, isBootstrap bool) *Server {
	s := &Server{peer: peer, logger: logger, router: mux.NewRouter()}

	if isBootstrap {
		s.router.HandleFunc("/registerNode/", s.handleRegisterNode).Methods(http.MethodPost)
	}
	s.router.HandleFunc("/setRing/", s.handleSetRing).Methods(http.MethodPost)
	s.router.HandleFunc("/addTransaction/", s.handleAddTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/addBlock/", s.handleAddBlock).Methods(http.MethodPost)
	s.router.HandleFunc("/getChain/", s.handleGetChain).Methods(http.MethodGet)
	s.router.HandleFunc("/chainLength/", s.handleChainLength).Methods(http.MethodGet)
	s.router.HandleFunc("/createTransaction/", s.handleCreateTransaction).Methods(http.MethodPost)
	s.router.HandleFunc("/balance/", s.handleBalance).Methods(http.MethodGet)
	s.router.HandleFunc("/transactions/get", s.handlePendingTransactions).Methods(http.MethodGet)
	s.router.HandleFunc("/viewLast/", s.handleViewLast).Methods(http.MethodGet)

	return s
}

// Router returns the http.Handler to mount behind an http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (s *Server) handleRegisterNode(w http.ResponseWriter, r *http.Request) {
	var entry core.RingEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	id, ringFull := s.peer.RegisterIncoming(entry)
	writeJSON(w, http.StatusOK, core.RegisterReply{ID: id})
	if ringFull {
		go s.peer.BroadcastRing(context.Background())
	}
}

func (s *Server) handleSetRing(w http.ResponseWriter, r *http.Request) {
	var req setRingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	if err := s.peer.SetRing(req.Ring, req.Chain); err != nil {
		s.logger.Warn("adopting ring", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	if err := s.peer.ReceiveTransaction(r.Context(), &tx); err != nil {
		s.logger.Info("rejecting gossiped transaction", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, nil)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	var block core.Block
	if err := json.NewDecoder(r.Body).Decode(&block); err != nil {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	if err := s.peer.ReceiveBlock(r.Context(), &block); err != nil {
		s.logger.Info("rejecting gossiped block", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, nil)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.peer.Chain())
}

func (s *Server) handleChainLength(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.peer.ChainLength())
}

type createTransactionRequest struct {
	ReceiverID int    `json:"receiver_id"`
	Amount     uint64 `json:"amount"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, nil)
		return
	}
	tx, err := s.peer.CreateTransaction(r.Context(), req.ReceiverID, req.Amount)
	if err != nil {
		s.logger.Info("rejecting client transaction request", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, nil)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.peer.Balance())
}

func (s *Server) handlePendingTransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.peer.PendingTransactions())
}

func (s *Server) handleViewLast(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.peer.TipTransactions())
}
