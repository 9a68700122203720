package relation_test

import (
	"testing"

	"github.com/jihwankim/roleguard/pkg/relation"
)

func TestBetweenHalfOpen(t *testing.T) {
	r := relation.BetweenOf(50.0, 100.0)
	if !r.Assert(50.0) {
		t.Fatal("lower bound should be inclusive")
	}
	if r.Assert(100.0) {
		t.Fatal("upper bound should be exclusive")
	}
}

func TestBetweenInclusive(t *testing.T) {
	r := relation.BetweenInclusiveOf(50.0, 100.0)
	if !r.Assert(100.0) {
		t.Fatal("upper bound should be inclusive")
	}
}

func TestBetweenInvertedBoundsAlwaysFalse(t *testing.T) {
	r := relation.BetweenOf(100.0, 50.0)
	if r.Assert(75.0) {
		t.Fatal("inverted bounds must never match")
	}
	ri := relation.BetweenInclusiveOf(100.0, 50.0)
	if ri.Assert(75.0) {
		t.Fatal("inverted bounds must never match")
	}
}

func TestSimpleRelations(t *testing.T) {
	cases := []struct {
		name string
		r    relation.Relation[float64]
		v    float64
		want bool
	}{
		{"eq-match", relation.EqualToOf(10.0), 10.0, true},
		{"eq-mismatch", relation.EqualToOf(10.0), 10.1, false},
		{"gt", relation.GreaterThanOf(10.0), 10.0001, true},
		{"gt-boundary", relation.GreaterThanOf(10.0), 10.0, false},
		{"gte-boundary", relation.GreaterOrEqualToOf(10.0), 10.0, true},
		{"lt", relation.LessThanOf(10.0), 9.999, true},
		{"lte-boundary", relation.LessOrEqualToOf(10.0), 10.0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Assert(tc.v); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAssertMany(t *testing.T) {
	r := relation.GreaterOrEqualToOf(1.0)
	got := r.AssertMany([]float64{0, 1, 2})
	want := []bool{false, true, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}
