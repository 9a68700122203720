// Package solbalance is the Solana balance requirement plugin: it calls
// getMultipleAccounts against a Solana RPC endpoint and returns each
// user's lamport balance. Derived from the EVM balance plugin's shape —
// structurally identical CallOne entry point, one RPC round trip instead
// of a multicall.
package solbalance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fxamacker/cbor/v2"

	"github.com/jihwankim/roleguard/pkg/pluginabi"
)

// Secret is the CBOR-encoded configuration this plugin requires.
type Secret struct {
	RPCURL []byte `cbor:"rpc_url"`
}

// CallOne is the plugin's exported entry point. Metadata is unused: a
// Solana lamport balance has no TokenType variants to dispatch on.
func CallOne(input pluginabi.CallOneInput) ([]float64, error) {
	var secret Secret
	if err := cbor.Unmarshal(input.Secrets, &secret); err != nil {
		return nil, fmt.Errorf("solbalance: decode secret: %w", err)
	}
	defer zeroize(secret.RPCURL)
	rpcURL := string(secret.RPCURL)

	client := input.Client
	if client == nil {
		client = http.DefaultClient
	}

	if len(input.Users) == 0 {
		return []float64{}, nil
	}

	return getBalanceBatch(client, rpcURL, input.Users)
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type accountValue struct {
	Lamports float64 `json:"lamports"`
}

type rpcResponse struct {
	Result struct {
		Value []*accountValue `json:"value"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func getBalanceBatch(client *http.Client, rpcURL string, pubkeys []string) ([]float64, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "getMultipleAccounts",
		Params: []interface{}{
			pubkeys,
			map[string]string{"encoding": "jsonParsed"},
		},
		ID: 1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("solbalance: marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, rpcURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("solbalance: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("solbalance: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("solbalance: read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("solbalance: unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return nil, fmt.Errorf("solbalance: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if len(rpcResp.Result.Value) != len(pubkeys) {
		return nil, fmt.Errorf("solbalance: rpc returned %d accounts for %d pubkeys", len(rpcResp.Result.Value), len(pubkeys))
	}

	out := make([]float64, len(pubkeys))
	for i, v := range rpcResp.Result.Value {
		if v != nil {
			out[i] = v.Lamports
		}
	}
	return out, nil
}
