// Package identity models the tagged identity variants a user can hold
// (on-chain addresses, social-platform IDs) and the per-user index of
// tag name -> ordered payload strings that requirements are evaluated
// against.
package identity

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Identity is a single credential pointer. TagName is the stable wire key
// under which it is stored on a User; Payload is the canonical string form
// fed to requirement plugins.
type Identity interface {
	TagName() string
	Payload() string
}

// Tag name constants. These are part of the wire contract between the role
// evaluator and installed plugins; renaming one is a breaking change.
const (
	TagEvmAddress = "evm_address"
	TagSolPubkey  = "sol_pubkey"
	TagTwitterID  = "twitter_id"
	TagDiscordID  = "discord_id"
	TagTelegramID = "telegram_id"
)

// EvmAddress is a 20-byte EVM account address.
type EvmAddress [20]byte

func (EvmAddress) TagName() string { return TagEvmAddress }

func (a EvmAddress) Payload() string {
	return "0x" + strings.ToLower(fmt.Sprintf("%x", [20]byte(a)))
}

// EvmAddressFromHex parses a 0x-prefixed or bare 40-hex-char address. It
// panics on malformed input; callers parsing untrusted wire data should
// validate with len/hex checks first.
func EvmAddressFromHex(addr string) EvmAddress {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(addr), "0x"))
	if err != nil || len(raw) != 20 {
		panic(fmt.Sprintf("identity: invalid evm address %q", addr))
	}
	var out EvmAddress
	copy(out[:], raw)
	return out
}

// SolPubkey is a base58-rendered Solana account public key. The string is
// carried verbatim; this package does not validate base58 encoding.
type SolPubkey string

func (SolPubkey) TagName() string    { return TagSolPubkey }
func (p SolPubkey) Payload() string  { return string(p) }

// TwitterID is a numeric Twitter/X account identifier.
type TwitterID uint64

func (TwitterID) TagName() string   { return TagTwitterID }
func (id TwitterID) Payload() string { return fmt.Sprintf("%d", uint64(id)) }

// DiscordID is a numeric Discord account identifier.
type DiscordID uint64

func (DiscordID) TagName() string   { return TagDiscordID }
func (id DiscordID) Payload() string { return fmt.Sprintf("%d", uint64(id)) }

// TelegramID is a numeric Telegram account identifier.
type TelegramID uint64

func (TelegramID) TagName() string    { return TagTelegramID }
func (id TelegramID) Payload() string { return fmt.Sprintf("%d", uint64(id)) }
