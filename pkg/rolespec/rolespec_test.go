package rolespec_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jihwankim/roleguard/pkg/relation"
	"github.com/jihwankim/roleguard/pkg/rolespec"
)

const sampleRole = `
apiVersion: roleguard/v1
kind: RoleSpec
metadata:
  name: evm-whale-role
spec:
  logic: "0 AND 1"
  requirements:
    - prefix: 1
      identityTag: evm_address
      relation:
        kind: gte
        lo: 1
      metadata:
        kind: native
    - prefix: 2
      identityTag: twitter_id
      relation:
        kind: eq
        lo: 1
`

func TestParseRoleValidatesAndConverts(t *testing.T) {
	p := rolespec.New(nil)
	doc, err := p.ParseRole([]byte(sampleRole))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Metadata.Name != "evm-whale-role" {
		t.Fatalf("unexpected name: %q", doc.Metadata.Name)
	}

	r, err := rolespec.ToRole(doc)
	if err != nil {
		t.Fatalf("unexpected conversion error: %v", err)
	}
	if r.ID != "evm-whale-role" || r.Logic != "0 AND 1" {
		t.Fatalf("unexpected role: %+v", r)
	}
	if len(r.Requirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(r.Requirements))
	}
	if r.Requirements[0].Relation.Kind != relation.GreaterOrEqualTo || r.Requirements[0].Relation.Lo != 1 {
		t.Fatalf("unexpected relation: %+v", r.Requirements[0].Relation)
	}
	if len(r.Requirements[0].Metadata) == 0 {
		t.Fatalf("expected cbor-encoded metadata")
	}
}

func TestParseRoleRejectsMissingLogic(t *testing.T) {
	p := rolespec.New(nil)
	_, err := p.ParseRole([]byte(`
apiVersion: roleguard/v1
kind: RoleSpec
metadata:
  name: broken
spec:
  requirements:
    - prefix: 1
      identityTag: evm_address
      relation:
        kind: gte
        lo: 1
`))
	if err == nil {
		t.Fatal("expected validation error for missing logic")
	}
}

func TestParseRoleRejectsUnknownRelationKind(t *testing.T) {
	p := rolespec.New(nil)
	_, err := p.ParseRole([]byte(`
apiVersion: roleguard/v1
kind: RoleSpec
metadata:
  name: broken
spec:
  logic: "0"
  requirements:
    - prefix: 1
      identityTag: evm_address
      relation:
        kind: bogus
        lo: 1
`))
	if err == nil {
		t.Fatal("expected validation error for unknown relation kind")
	}
}

func TestSubstituteVariablesPrefersParserThenEnv(t *testing.T) {
	t.Setenv("ROLEGUARD_TEST_VAR", "from-env")

	p := rolespec.New(map[string]string{"FROM_PARSER": "from-parser"})
	doc, err := p.ParseRole([]byte(`
apiVersion: roleguard/v1
kind: RoleSpec
metadata:
  name: "${FROM_PARSER}"
spec:
  logic: "0"
  requirements:
    - prefix: 1
      identityTag: "${ROLEGUARD_TEST_VAR}"
      relation:
        kind: gte
        lo: 1
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Metadata.Name != "from-parser" {
		t.Fatalf("expected parser variable substitution, got %q", doc.Metadata.Name)
	}
	if doc.Spec.Requirements[0].IdentityTag != "from-env" {
		t.Fatalf("expected env variable substitution, got %q", doc.Spec.Requirements[0].IdentityTag)
	}
}

func TestApplyOverridesChangesLogicAndFilter(t *testing.T) {
	p := rolespec.New(nil)
	doc, err := p.ParseRole([]byte(sampleRole))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	overrides, err := rolespec.ParseOverrides([]string{"logic=0 OR 1", "filter=0xaaa,0xbbb"})
	if err != nil {
		t.Fatalf("unexpected error parsing overrides: %v", err)
	}
	if err := rolespec.ApplyOverrides(doc, overrides); err != nil {
		t.Fatalf("unexpected error applying overrides: %v", err)
	}

	if doc.Spec.Logic != "0 OR 1" {
		t.Fatalf("expected overridden logic, got %q", doc.Spec.Logic)
	}
	if len(doc.Spec.Filter) != 2 {
		t.Fatalf("expected overridden filter, got %v", doc.Spec.Filter)
	}
}

func TestParseUserBatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	contents := `
users:
  - id: 1
    identities:
      evm_address: ["0xaaaa000000000000000000000000000000aaaa"]
  - id: 2
    identities:
      evm_address: ["0xbbbb000000000000000000000000000000bbbb"]
      twitter_id: ["42"]
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}

	p := rolespec.New(nil)
	users, err := p.ParseUserBatchFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[1].ID != 2 || len(users[1].Payloads("twitter_id")) != 1 {
		t.Fatalf("unexpected second user: %+v", users[1])
	}
}
