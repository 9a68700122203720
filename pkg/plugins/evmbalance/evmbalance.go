// Package evmbalance is the EVM balance requirement plugin: it resolves a
// TokenType against a Multicall contract over JSON-RPC and returns one
// normalized balance per user. Its CallOne is the function a
// buildmode=plugin .so built from cmd/plugins/evmbalance exports.
package evmbalance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/fxamacker/cbor/v2"

	"github.com/jihwankim/roleguard/pkg/evmabi"
	"github.com/jihwankim/roleguard/pkg/pluginabi"
)

// Secret is the CBOR-encoded configuration every requirement using this
// plugin must supply.
type Secret struct {
	RPCURL            []byte `cbor:"rpc_url"`
	MulticallContract string `cbor:"multicall_contract"`
}

// TokenKind selects the shape of query TokenType describes.
type TokenKind int

const (
	Native TokenKind = iota
	Fungible
	NonFungible
	Special
)

// TokenType is the CBOR-encoded requirement metadata this plugin
// dispatches on.
type TokenType struct {
	Kind    TokenKind `cbor:"kind"`
	Address string    `cbor:"address,omitempty"`
	// ID is a decimal token-id string. Its absence (nil) distinguishes
	// "any token in this contract" from "this specific token".
	ID *string `cbor:"id,omitempty"`
}

// CallOne is the plugin's exported entry point.
func CallOne(input pluginabi.CallOneInput) ([]float64, error) {
	var secret Secret
	if err := cbor.Unmarshal(input.Secrets, &secret); err != nil {
		return nil, fmt.Errorf("evmbalance: decode secret: %w", err)
	}
	defer zeroize(secret.RPCURL)
	rpcURL := string(secret.RPCURL)

	var tt TokenType
	if err := cbor.Unmarshal(input.Metadata, &tt); err != nil {
		return nil, fmt.Errorf("evmbalance: decode token type: %w", err)
	}

	client := input.Client
	if client == nil {
		client = http.DefaultClient
	}

	switch tt.Kind {
	case Native:
		return ethBalances(client, rpcURL, secret.MulticallContract, input.Users)
	case Fungible:
		return fungibleBalances(client, rpcURL, secret.MulticallContract, tt.Address, input.Users)
	case NonFungible:
		if tt.ID == nil {
			return nonFungibleBalances(client, rpcURL, secret.MulticallContract, tt.Address, input.Users)
		}
		return nonFungibleOwnership(client, rpcURL, tt.Address, *tt.ID, input.Users)
	case Special:
		if tt.ID == nil {
			return make([]float64, len(input.Users)), nil
		}
		return specialBatchBalances(client, rpcURL, tt.Address, *tt.ID, input.Users)
	default:
		return nil, fmt.Errorf("evmbalance: unknown token kind %d", tt.Kind)
	}
}

func zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

func ethBalances(client *http.Client, rpcURL, multicallAddr string, users []string) ([]float64, error) {
	calls := make([]evmabi.Call, len(users))
	for i, u := range users {
		calls[i] = evmabi.Call{Target: multicallAddr, CallData: evmabi.EthBalanceCallData(u)}
	}
	result, err := ethCall(client, rpcURL, multicallAddr, "0x"+evmabi.Aggregate(calls))
	if err != nil {
		return nil, err
	}
	balances, err := evmabi.ParseMulticallResult(result)
	if err != nil {
		return nil, err
	}
	return evmabi.NormalizeEth(balances), nil
}

func fungibleBalances(client *http.Client, rpcURL, multicallAddr, tokenAddr string, users []string) ([]float64, error) {
	calls := make([]evmabi.Call, len(users))
	for i, u := range users {
		calls[i] = evmabi.Call{Target: tokenAddr, CallData: evmabi.BalanceOfCallData(u)}
	}
	result, err := ethCall(client, rpcURL, multicallAddr, "0x"+evmabi.Aggregate(calls))
	if err != nil {
		return nil, err
	}
	balances, err := evmabi.ParseMulticallResult(result)
	if err != nil {
		return nil, err
	}

	decimalsResult, err := ethCall(client, rpcURL, tokenAddr, "0x"+evmabi.DecimalsCallData())
	if err != nil {
		return nil, err
	}
	decimals, err := evmabi.ParseDecimals(decimalsResult)
	if err != nil {
		return nil, err
	}

	return evmabi.NormalizeByDecimals(balances, decimals), nil
}

func nonFungibleBalances(client *http.Client, rpcURL, multicallAddr, tokenAddr string, users []string) ([]float64, error) {
	calls := make([]evmabi.Call, len(users))
	for i, u := range users {
		calls[i] = evmabi.Call{Target: tokenAddr, CallData: evmabi.BalanceOfCallData(u)}
	}
	result, err := ethCall(client, rpcURL, multicallAddr, "0x"+evmabi.Aggregate(calls))
	if err != nil {
		return nil, err
	}
	return evmabi.ParseMulticallResult(result)
}

func nonFungibleOwnership(client *http.Client, rpcURL, tokenAddr, idDecimal string, users []string) ([]float64, error) {
	idHex, err := evmabi.DecToHex(idDecimal)
	if err != nil {
		return nil, err
	}
	result, err := ethCall(client, rpcURL, tokenAddr, "0x"+evmabi.OwnerOfCallData(idHex))
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(users))
	for i, u := range users {
		if evmabi.OwnerMatches(result, u) {
			out[i] = 1.0
		}
	}
	return out, nil
}

func specialBatchBalances(client *http.Client, rpcURL, tokenAddr, idDecimal string, users []string) ([]float64, error) {
	idHex, err := evmabi.DecToHex(idDecimal)
	if err != nil {
		return nil, err
	}
	result, err := ethCall(client, rpcURL, tokenAddr, "0x"+evmabi.Erc1155BatchCallData(users, idHex))
	if err != nil {
		return nil, err
	}
	return evmabi.ParseErc1155BatchResult(result)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ethCall performs a single eth_call against to with data, against rpcURL.
func ethCall(client *http.Client, rpcURL, to, data string) (string, error) {
	req := rpcRequest{
		JSONRPC: "2.0",
		Method:  "eth_call",
		Params: []interface{}{
			map[string]string{"to": to, "data": data},
			"latest",
		},
		ID: 1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("evmbalance: marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("evmbalance: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("evmbalance: do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("evmbalance: read response: %w", err)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return "", fmt.Errorf("evmbalance: unmarshal response: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("evmbalance: rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	if len(rpcResp.Result) >= 2 && rpcResp.Result[0] == '"' {
		var s string
		if err := json.Unmarshal(rpcResp.Result, &s); err != nil {
			return "", fmt.Errorf("evmbalance: unmarshal result string: %w", err)
		}
		return s, nil
	}
	return string(rpcResp.Result), nil
}
