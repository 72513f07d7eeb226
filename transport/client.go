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

/* Package transport is the concrete "key/value-style RPC fabric" spec.md
§6 describes as external to the node core: a JSON-over-HTTP binding,
generalized from the teacher's raw-TCP/gob pseudo_p2p protocol. core only
ever depends on the core.PeerTransport interface; Client is the
implementation wired into cmd/noobcashd. */
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"noobcash/core"
)

// Client implements core.PeerTransport over HTTP.
type Client struct {
	http *http.Client
}

// NewClient returns a transport client with a bounded per-request timeout,
// so a stalled peer never blocks a gossip fan-out indefinitely.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 10 * time.Second}}
}

func postJSON(ctx context.Context, c *http.Client, url string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return errors.Wrap(err, "transport: encoding request")
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return errors.Wrap(err, "transport: building request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return errors.Wrap(err, "transport: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("transport: %s returned %d", url, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "transport: decoding response")
}

func getJSON(ctx context.Context, c *http.Client, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, "transport: building request")
	}
	resp, err := c.Do(req)
	if err != nil {
		return errors.Wrap(err, "transport: request failed")
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("transport: %s returned %d", url, resp.StatusCode)
	}
	return errors.Wrap(json.NewDecoder(resp.Body).Decode(out), "transport: decoding response")
}

// Register implements core.PeerTransport.
func (c *Client) Register(ctx context.Context, bootstrapAddr string, self core.RingEntry) (core.RegisterReply, error) {
	var reply core.RegisterReply
	err := postJSON(ctx, c.http, fmt.Sprintf("http://%s/registerNode/", bootstrapAddr), self, &reply)
	return reply, err
}

type setRingRequest struct {
	Ring  []core.RingEntry `json:"ring"`
	Chain []*core.Block    `json:"chain"`
}

// SendRing implements core.PeerTransport.
func (c *Client) SendRing(ctx context.Context, addr string, ring []core.RingEntry, chain []*core.Block) error {
	return postJSON(ctx, c.http, fmt.Sprintf("http://%s/setRing/", addr), setRingRequest{Ring: ring, Chain: chain}, nil)
}

// SendTransaction implements core.PeerTransport.
func (c *Client) SendTransaction(ctx context.Context, addr string, tx *core.Transaction) error {
	return postJSON(ctx, c.http, fmt.Sprintf("http://%s/addTransaction/", addr), tx, nil)
}

// SendBlock implements core.PeerTransport.
func (c *Client) SendBlock(ctx context.Context, addr string, block *core.Block) error {
	return postJSON(ctx, c.http, fmt.Sprintf("http://%s/addBlock/", addr), block, nil)
}

// FetchChain implements core.PeerTransport.
func (c *Client) FetchChain(ctx context.Context, addr string) ([]*core.Block, error) {
	var chain []*core.Block
	err := getJSON(ctx, c.http, fmt.Sprintf("http://%s/getChain/", addr), &chain)
	return chain, err
}

// ChainLength asks addr how many blocks its chain holds, without
// transferring the whole chain (spec.md §6's /chainLength/).
func (c *Client) ChainLength(ctx context.Context, addr string) (int, error) {
	var n int
	err := getJSON(ctx, c.http, fmt.Sprintf("http://%s/chainLength/", addr), &n)
	return n, err
}
