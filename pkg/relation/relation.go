// Package relation implements the inequality/range predicates used to turn a
// requirement's raw scalar result into a pass/fail boolean.
package relation

// Ordered is any scalar type total-order comparisons can be applied to.
// Requirements in this package are parameterized on Scalar (float64), but
// the predicate logic itself only needs ordering.
type Ordered interface {
	~float64 | ~int64 | ~uint64
}

// Kind enumerates the supported relation shapes.
type Kind int

const (
	EqualTo Kind = iota
	GreaterThan
	GreaterOrEqualTo
	LessThan
	LessOrEqualTo
	Between
	BetweenInclusive
)

// Relation is a boolean predicate over a single scalar, parameterized by a
// lower/upper bound pair. Non-range kinds (EqualTo, GreaterThan, ...) only
// use Lo.
type Relation[T Ordered] struct {
	Kind Kind
	Lo   T
	Hi   T
}

// EqualToOf builds an equality relation.
func EqualToOf[T Ordered](v T) Relation[T] { return Relation[T]{Kind: EqualTo, Lo: v} }

// GreaterThanOf builds a strict greater-than relation.
func GreaterThanOf[T Ordered](v T) Relation[T] { return Relation[T]{Kind: GreaterThan, Lo: v} }

// GreaterOrEqualToOf builds a greater-or-equal relation.
func GreaterOrEqualToOf[T Ordered](v T) Relation[T] { return Relation[T]{Kind: GreaterOrEqualTo, Lo: v} }

// LessThanOf builds a strict less-than relation.
func LessThanOf[T Ordered](v T) Relation[T] { return Relation[T]{Kind: LessThan, Lo: v} }

// LessOrEqualToOf builds a less-or-equal relation.
func LessOrEqualToOf[T Ordered](v T) Relation[T] { return Relation[T]{Kind: LessOrEqualTo, Lo: v} }

// BetweenOf builds a half-open range relation: [lo, hi).
func BetweenOf[T Ordered](lo, hi T) Relation[T] { return Relation[T]{Kind: Between, Lo: lo, Hi: hi} }

// BetweenInclusiveOf builds a closed range relation: [lo, hi].
func BetweenInclusiveOf[T Ordered](lo, hi T) Relation[T] {
	return Relation[T]{Kind: BetweenInclusive, Lo: lo, Hi: hi}
}

// Assert evaluates the relation against v. Between and BetweenInclusive
// return false whenever Lo > Hi, regardless of v.
func (r Relation[T]) Assert(v T) bool {
	switch r.Kind {
	case EqualTo:
		return v == r.Lo
	case GreaterThan:
		return v > r.Lo
	case GreaterOrEqualTo:
		return v >= r.Lo
	case LessThan:
		return v < r.Lo
	case LessOrEqualTo:
		return v <= r.Lo
	case Between:
		if r.Lo > r.Hi {
			return false
		}
		return v >= r.Lo && v < r.Hi
	case BetweenInclusive:
		if r.Lo > r.Hi {
			return false
		}
		return v >= r.Lo && v <= r.Hi
	default:
		return false
	}
}

// AssertMany maps Assert across a batch of scalars, preserving order.
func (r Relation[T]) AssertMany(values []T) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = r.Assert(v)
	}
	return out
}
