package precompile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"
)

// Result holds the outcome of a single precompile test call.
type Result struct {
	// Address is the contract/precompile address that was called.
	Address string `json:"address"`
	// Name is the human-readable label from the registry.
	Name string `json:"name"`
	// Passed is true when the actual return value matched the expected check.
	Passed bool `json:"passed"`
	// Message describes the outcome.
	Message string `json:"message"`
	// Kind is "required" for an entry the endpoint must support, or
	// "unassigned" for an address that must come back empty.
	Kind string `json:"kind"`
}

// Checker probes an EVM JSON-RPC endpoint's precompile set, used by
// `roleguard evm diagnose` to sanity-check an endpoint before an operator
// points a requirement's rpc_url secret at it.
type Checker struct {
	rpcURL string
	rng    *rand.Rand
	client *http.Client
}

// New builds a Checker against rpcURL, seeding its random spot-check
// sampling with seed for reproducibility.
func New(rpcURL string, seed int64) *Checker {
	return &Checker{
		rpcURL: rpcURL,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Sample checks one random entry from All() and one freshly-generated
// random unassigned address, rather than the full registry. Cheaper than
// RunAll for a periodic spot-check between full audits.
func (c *Checker) Sample(ctx context.Context) []Result {
	results := make([]Result, 0, 2)

	if known := All(); len(known) > 0 {
		entry := known[c.rng.Intn(len(known))]
		results = append(results, c.check(ctx, entry, "required"))
	}

	addr := RandomSpotCheckAddress(c.rng)
	results = append(results, c.check(ctx, Entry{
		Address: addr,
		Name:    fmt.Sprintf("spot-check-%s", addr),
		Input:   "0x",
		Check:   "empty",
	}, "unassigned"))

	return results
}

// RunAll calls every entry in the full registry (required + unassigned)
// and returns all results — a comprehensive one-shot audit of the endpoint.
func (c *Checker) RunAll(ctx context.Context) []Result {
	var results []Result
	for _, e := range All() {
		results = append(results, c.check(ctx, e, "required"))
	}
	for _, e := range UnassignedAddresses {
		results = append(results, c.check(ctx, e, "unassigned"))
	}
	return results
}

// check executes one eth_call and validates the result against the entry's Check rule.
func (c *Checker) check(ctx context.Context, entry Entry, kind string) Result {
	got, err := c.ethCall(ctx, entry.Address, entry.Input)
	if err != nil {
		return Result{
			Address: entry.Address,
			Name:    entry.Name,
			Passed:  false,
			Message: fmt.Sprintf("eth_call error: %v", err),
			Kind:    kind,
		}
	}

	var passed bool
	var msg string

	switch entry.Check {
	case "exact":
		passed = (got == entry.Expected)
		if passed {
			msg = fmt.Sprintf("returned expected value %s", got)
		} else {
			msg = fmt.Sprintf("got %s; want %s", got, entry.Expected)
		}

	case "non_empty":
		passed = (got != "" && got != "0x")
		if passed {
			msg = fmt.Sprintf("returned non-empty value (len=%d)", len(got))
		} else {
			msg = "returned empty — precompile not active or address has no code"
		}

	case "empty":
		passed = (got == "" || got == "0x")
		if passed {
			msg = "correctly returned empty (no code at address)"
		} else {
			msg = fmt.Sprintf("unexpectedly returned non-empty value %s — unknown code deployed at this address", got)
		}

	default:
		msg = fmt.Sprintf("unknown check type %q in registry entry for %s", entry.Check, entry.Name)
	}

	return Result{
		Address: entry.Address,
		Name:    entry.Name,
		Passed:  passed,
		Message: msg,
		Kind:    kind,
	}
}

// ── minimal JSON-RPC client ──────────────────────────────────────────────────

type ethCallRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

type ethCallResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ethCall calls eth_call({to, data}, "latest") and returns the hex result string.
func (c *Checker) ethCall(ctx context.Context, to, data string) (string, error) {
	req := ethCallRequest{
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
		return "", fmt.Errorf("marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var rpcResp ethCallResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	if rpcResp.Error != nil {
		return "", fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	// Unwrap JSON string `"0xdeadbeef"` → `0xdeadbeef`.
	if len(rpcResp.Result) >= 2 && rpcResp.Result[0] == '"' {
		var s string
		if err := json.Unmarshal(rpcResp.Result, &s); err != nil {
			return "", fmt.Errorf("unmarshal result string: %w", err)
		}
		return s, nil
	}
	return string(rpcResp.Result), nil
}
