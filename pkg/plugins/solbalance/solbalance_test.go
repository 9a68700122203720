package solbalance_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/jihwankim/roleguard/pkg/pluginabi"
	"github.com/jihwankim/roleguard/pkg/plugins/solbalance"
)

func TestCallOneReturnsLamportsInOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"result": map[string]interface{}{
				"value": []map[string]interface{}{
					{"lamports": 1761523130.0},
					{"lamports": 2000000.0},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	secret, err := cbor.Marshal(solbalance.Secret{RPCURL: []byte(server.URL)})
	if err != nil {
		t.Fatal(err)
	}

	balances, err := solbalance.CallOne(pluginabi.CallOneInput{
		Client: server.Client(),
		Users: []string{
			"5MLhcU2vPXHwxUFXQJXYGQcFfetTthDajWf4CgSYtMK9",
			"4fYNw3dojWmQ4dXtSGE9epjRGy9pFSx62YypT7avPYvA",
		},
		Secrets: secret,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 2 || balances[0] != 1761523130.0 || balances[1] != 2000000.0 {
		t.Fatalf("unexpected balances: %v", balances)
	}
}

func TestCallOneEmptyUsersReturnsEmpty(t *testing.T) {
	secret, err := cbor.Marshal(solbalance.Secret{RPCURL: []byte("http://unused")})
	if err != nil {
		t.Fatal(err)
	}
	balances, err := solbalance.CallOne(pluginabi.CallOneInput{Secrets: secret})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(balances) != 0 {
		t.Fatalf("expected empty result, got %v", balances)
	}
}
