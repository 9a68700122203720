// Package pluginabi defines the call shape shared between the plugin host
// and every plugin built with -buildmode=plugin: the exported symbol name,
// its Go function type, and the input/output it carries.
package pluginabi

import "net/http"

// CallOneInput is the argument a plugin's exported CallOne receives. It
// carries one batch of users through a single requirement check: every
// plugin call handles a whole batch, not one user at a time, so it can
// fan its own requests out (e.g. one multicall per batch) instead of the
// host paying per-user round trips.
type CallOneInput struct {
	Client *http.Client

	// Users holds one entry per identity payload under the requirement's
	// identity tag: users in the batch's original order, each user's
	// payloads in order, so a user with several identities contributes
	// several entries and one with none contributes nothing. A plugin
	// dispatches the value however its token type requires (an EVM
	// address, a Solana pubkey, ...).
	Users []string

	// Secrets is the CBOR-encoded plugin secret blob for this requirement
	// (RPC endpoints, API keys), opaque to the host.
	Secrets []byte

	// Metadata is the CBOR-encoded TokenType-specific configuration for
	// this requirement (e.g. token kind, contract address, token ID).
	Metadata []byte
}

// CallOneSymbol is the exported symbol name every plugin must provide:
// "CallOne", with this signature.
const CallOneSymbol = "CallOne"

// CallOneFunc is the function type looked up under CallOneSymbol.
type CallOneFunc func(CallOneInput) ([]float64, error)
