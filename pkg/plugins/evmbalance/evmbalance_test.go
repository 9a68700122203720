package evmbalance_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/jihwankim/roleguard/pkg/pluginabi"
	"github.com/jihwankim/roleguard/pkg/plugins/evmbalance"
)

func padWord(hex string) string {
	return strings.Repeat("0", 64-len(hex)) + hex
}

func jsonRPCResult(t *testing.T, hexResult string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		var req struct {
			Method string `json:"method"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("unmarshal request: %v", err)
		}
		if req.Method != "eth_call" {
			t.Fatalf("unexpected rpc method %q", req.Method)
		}
		resp := map[string]string{"jsonrpc": "2.0", "result": hexResult}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func cborMarshal(t *testing.T, v interface{}) []byte {
	t.Helper()
	b, err := cbor.Marshal(v)
	if err != nil {
		t.Fatalf("cbor marshal: %v", err)
	}
	return b
}

func TestCallOneNativeEthBalance(t *testing.T) {
	// Multicall-shaped response: head filler, count=2, filler up to the
	// count+4=6 skip point, then balance words at indices 6 and 8.
	words := []string{"0", "0", "2", "0", "0", "0", "de0b6b3a7640000", "0", "1bc16d674ec80000"}
	var result strings.Builder
	result.WriteString("0x")
	for _, w := range words {
		result.WriteString(padWord(w))
	}

	server := httptest.NewServer(jsonRPCResult(t, result.String()))
	defer server.Close()

	secret := cborMarshal(t, evmbalance.Secret{
		RPCURL:            []byte(server.URL),
		MulticallContract: "0x0000000000000000000000000000000000000001",
	})
	metadata := cborMarshal(t, evmbalance.TokenType{Kind: evmbalance.Native})

	balances, err := evmbalance.CallOne(pluginabi.CallOneInput{
		Client:   server.Client(),
		Users:    []string{"0xaaaa000000000000000000000000000000aaaa", "0xbbbb000000000000000000000000000000bbbb"},
		Secrets:  secret,
		Metadata: metadata,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 || balances[0] != 1.0 || balances[1] != 2.0 {
		t.Fatalf("unexpected balances: %v", balances)
	}
}

func TestCallOneSpecialWithoutIDReturnsZeros(t *testing.T) {
	metadata := cborMarshal(t, evmbalance.TokenType{Kind: evmbalance.Special, Address: "0x1"})
	secret := cborMarshal(t, evmbalance.Secret{RPCURL: []byte("http://unused"), MulticallContract: "0x1"})

	balances, err := evmbalance.CallOne(pluginabi.CallOneInput{
		Users:    []string{"a", "b", "c"},
		Secrets:  secret,
		Metadata: metadata,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, b := range balances {
		if b != 0 {
			t.Fatalf("expected all-zero balances for Special(None), got %v", balances)
		}
	}
}

func TestCallOneNonFungibleOwnership(t *testing.T) {
	owner := "e43878ce78934fe8007748ff481f03b8ee3b97de"
	result := "0x" + padWord(owner)

	server := httptest.NewServer(jsonRPCResult(t, result))
	defer server.Close()

	id := "7"
	metadata := cborMarshal(t, evmbalance.TokenType{Kind: evmbalance.NonFungible, Address: "0x2", ID: &id})
	secret := cborMarshal(t, evmbalance.Secret{RPCURL: []byte(server.URL), MulticallContract: "0x1"})

	balances, err := evmbalance.CallOne(pluginabi.CallOneInput{
		Client:   server.Client(),
		Users:    []string{"0x" + owner, "0x0000000000000000000000000000000000dead"},
		Secrets:  secret,
		Metadata: metadata,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 || balances[0] != 1.0 || balances[1] != 0.0 {
		t.Fatalf("unexpected ownership result: %v", balances)
	}
}
