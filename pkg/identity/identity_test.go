package identity_test

import (
	"testing"

	"github.com/jihwankim/roleguard/pkg/identity"
)

func TestEvmAddressPayload(t *testing.T) {
	var addr identity.EvmAddress
	addr[0] = 0xE4
	addr[19] = 0xDE
	payload := addr.Payload()
	if payload[:2] != "0x" {
		t.Fatalf("payload must be 0x-prefixed, got %q", payload)
	}
	if len(payload) != 42 {
		t.Fatalf("expected 42-char payload, got %d: %q", len(payload), payload)
	}
}

func TestUserBuilderPreservesInsertionOrderAndDuplicates(t *testing.T) {
	var a1, a2 identity.EvmAddress
	a1[19] = 0x01
	a2[19] = 0x02

	u := identity.NewUserBuilder(7).
		Add(a1).
		Add(a2).
		Add(identity.TwitterID(42)).
		Build()

	if u.ID != 7 {
		t.Fatalf("unexpected id %d", u.ID)
	}
	evmPayloads := u.Payloads(identity.TagEvmAddress)
	if len(evmPayloads) != 2 {
		t.Fatalf("expected 2 evm_address payloads (duplicates preserved), got %d", len(evmPayloads))
	}
	if evmPayloads[0] == evmPayloads[1] {
		t.Fatalf("expected distinct addresses")
	}
	twitter := u.Payloads(identity.TagTwitterID)
	if len(twitter) != 1 || twitter[0] != "42" {
		t.Fatalf("unexpected twitter payloads: %v", twitter)
	}
}

func TestUserPayloadsMissingTagReturnsNil(t *testing.T) {
	u := identity.NewUserBuilder(1).Build()
	if got := u.Payloads(identity.TagSolPubkey); got != nil {
		t.Fatalf("expected nil for missing tag, got %v", got)
	}
}
