package role_test

import (
	"net/http"
	"testing"

	"github.com/jihwankim/roleguard/pkg/allowlist"
	"github.com/jihwankim/roleguard/pkg/identity"
	"github.com/jihwankim/roleguard/pkg/relation"
	"github.com/jihwankim/roleguard/pkg/requirement"
	"github.com/jihwankim/roleguard/pkg/role"
)

// fakeChecker simulates the requirement runtime by indexing a
// caller-supplied function per requirement prefix.
type fakeChecker struct {
	byPrefix map[uint64]func(identities []string) []bool
}

func (f *fakeChecker) Check(req requirement.Requirement, client *http.Client, identities []string) ([]bool, error) {
	fn := f.byPrefix[req.Prefix]
	return fn(identities), nil
}

func addrUser(id uint64, addr string) identity.User {
	return identity.NewUserBuilder(id).Add(identity.EvmAddressFromHex(addr)).Build()
}

func TestScenarioASingleRequirementAllowlist(t *testing.T) {
	users := []identity.User{
		addrUser(0, "0xE43878Ce78934fe8007748FF481f03B8Ee3b97DE"),
		addrUser(1, "0x14DDFE8EA7FFc338015627D160ccAf99e8F16Dd3"),
		addrUser(2, "0x283d678711daa088640c86a1ad3f12c00ec1252e"),
	}

	al := allowlist.AllowList[string]{
		DenyList: false,
		List: []string{
			"0xe43878ce78934fe8007748ff481f03b8ee3b97de",
			"0x14ddfe8ea7ffc338015627d160ccaf99e8f16dd3",
		},
	}

	checker := &fakeChecker{byPrefix: map[uint64]func([]string) []bool{
		1: func(identities []string) []bool { return al.CheckMany(identities) },
	}}

	r := role.Role{
		ID:    "allowlist-role",
		Logic: "0",
		Requirements: []requirement.Requirement{
			{Prefix: 1, IdentityTag: identity.TagEvmAddress, Relation: relation.GreaterThanOf(0)},
		},
	}

	got, err := role.NewEvaluator(checker).CheckBatch(r, nil, users)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestScenarioBBooleanComposition(t *testing.T) {
	// Pre-transposed per-user rows: [[T,T,T,T,T],[T,T,F,T,T],[T,T,T,T,T],
	// [F,T,T,F,F],[F,T,T,T,T]] — re-derive the per-requirement columns
	// (access_r) a fan-out/reduce step would have produced.
	perUser := [][]bool{
		{true, true, true, true, true},
		{true, true, false, true, true},
		{true, true, true, true, true},
		{false, true, true, false, false},
		{false, true, true, true, true},
	}
	numUsers := len(perUser)
	numReqs := len(perUser[0])

	// Every user contributes exactly one twitter_id identity, in user
	// order, so fan-out/reduce is an identity passthrough of each
	// requirement's column.
	users := make([]identity.User, numUsers)
	for u := 0; u < numUsers; u++ {
		users[u] = identity.NewUserBuilder(uint64(u)).Add(identity.TwitterID(uint64(u))).Build()
	}

	reqs := make([]requirement.Requirement, numReqs)
	byPrefix := make(map[uint64]func([]string) []bool, numReqs)
	for r := 0; r < numReqs; r++ {
		reqs[r] = requirement.Requirement{Prefix: uint64(r), IdentityTag: identity.TagTwitterID}
		col := make([]bool, numUsers)
		for u := 0; u < numUsers; u++ {
			col[u] = perUser[u][r]
		}
		byPrefix[uint64(r)] = func(col []bool) func([]string) []bool {
			return func(identities []string) []bool { return col }
		}(col)
	}

	checker := &fakeChecker{byPrefix: byPrefix}
	roleDef := role.Role{
		ID:           "composed",
		Logic:        "(0 AND 1) OR (2 OR 3) AND 4",
		Requirements: reqs,
	}

	got, err := role.NewEvaluator(checker).CheckBatch(roleDef, nil, users)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []bool{true, true, true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestScenarioFIdentityReductionOrsAcrossIdentities(t *testing.T) {
	failing := "0x0000000000000000000000000000000000000001"
	passing := "0x0000000000000000000000000000000000000002"

	u := identity.NewUserBuilder(0).
		Add(identity.EvmAddressFromHex(failing)).
		Add(identity.EvmAddressFromHex(passing)).
		Build()

	checker := &fakeChecker{byPrefix: map[uint64]func([]string) []bool{
		1: func(identities []string) []bool {
			out := make([]bool, len(identities))
			for i, id := range identities {
				out[i] = id == passing
			}
			return out
		},
	}}

	r := role.Role{
		ID:    "or-over-identities",
		Logic: "0",
		Requirements: []requirement.Requirement{
			{Prefix: 1, IdentityTag: identity.TagEvmAddress},
		},
	}

	got, err := role.NewEvaluator(checker).CheckBatch(r, nil, []identity.User{u})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || !got[0] {
		t.Fatalf("expected the user to pass via OR over identities, got %v", got)
	}
}

func TestZeroUsersReturnsEmptySequence(t *testing.T) {
	checker := &fakeChecker{byPrefix: map[uint64]func([]string) []bool{}}
	r := role.Role{ID: "empty", Logic: "0", Requirements: []requirement.Requirement{{Prefix: 1}}}

	got, err := role.NewEvaluator(checker).CheckBatch(r, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected an empty result, got %v", got)
	}
}

func TestEmptyLogicIsAParseError(t *testing.T) {
	checker := &fakeChecker{byPrefix: map[uint64]func([]string) []bool{}}
	r := role.Role{ID: "broken", Logic: ""}

	_, err := role.NewEvaluator(checker).CheckBatch(r, nil, []identity.User{identity.NewUserBuilder(0).Build()})
	if err == nil {
		t.Fatal("expected a parse error for empty logic")
	}
	var roleErr *role.Error
	if !asRoleError(err, &roleErr) || roleErr.Kind != role.ParseError {
		t.Fatalf("expected role.ParseError, got %v", err)
	}
}

func TestFilterANDsWithVerdict(t *testing.T) {
	member := "0xe43878ce78934fe8007748ff481f03b8ee3b97de"
	nonMember := "0x14ddfe8ea7ffc338015627d160ccaf99e8f16dd3"

	users := []identity.User{
		addrUser(0, member),
		addrUser(1, nonMember),
	}

	checker := &fakeChecker{byPrefix: map[uint64]func([]string) []bool{
		1: func(identities []string) []bool {
			out := make([]bool, len(identities))
			for i := range out {
				out[i] = true
			}
			return out
		},
	}}

	filter := allowlist.AllowList[string]{DenyList: false, List: []string{member}}
	r := role.Role{
		ID:     "filtered",
		Logic:  "0",
		Filter: &filter,
		Requirements: []requirement.Requirement{
			{Prefix: 1, IdentityTag: identity.TagEvmAddress},
		},
	}

	got, err := role.NewEvaluator(checker).CheckBatch(r, nil, users)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0] || got[1] {
		t.Fatalf("expected filter to pass only the member, got %v", got)
	}
}

func asRoleError(err error, target **role.Error) bool {
	e, ok := err.(*role.Error)
	if ok {
		*target = e
	}
	return ok
}
