package domain

// Op is a comparison operator applied to an indexed attribute.
type Op int

const (
	// OpEquals matches the attribute exactly. String comparisons are
	// case-insensitive when FoldCase is set on the predicate.
	OpEquals Op = iota

	// OpLike matches a SQL LIKE pattern with % and _ wildcards.
	OpLike

	OpGT
	OpGTE
	OpLT
	OpLTE

	// OpIsNullOrGTE matches when the attribute is null or >= the value.
	// Used for open-ended validity intervals where a missing end date
	// means "still active".
	OpIsNullOrGTE

	// OpIsNullOrGT is the strict variant of OpIsNullOrGTE.
	OpIsNullOrGT

	// OpNotNullAndLT matches only when the attribute is present and
	// strictly before the value. A null end date can never end before a
	// point in time.
	OpNotNullAndLT
)

// Predicate is one attribute comparison.
type Predicate struct {
	// Key is the attribute name, which must appear in the document
	// type's schema.
	Key string

	Op Op

	// Value is the comparison operand: string, float64, int64, or bool
	// depending on Type. DateTime operands are normalised strings.
	Value any

	// Type is the declared type of the attribute, used by the store to
	// cast before comparing.
	Type ValueType

	// FoldCase requests case-insensitive string comparison.
	FoldCase bool
}

// Clause is a disjunction of predicates. A record matches a clause when
// any of its predicates match.
type Clause []Predicate

// PredicateSet is a conjunction of clauses. A record matches the set
// when every clause matches. The empty set matches everything.
type PredicateSet struct {
	Clauses []Clause
}

// And appends a single-predicate clause.
func (s *PredicateSet) And(p Predicate) {
	s.Clauses = append(s.Clauses, Clause{p})
}

// AndAny appends a disjunctive clause. Empty clauses are dropped.
func (s *PredicateSet) AndAny(c Clause) {
	if len(c) == 0 {
		return
	}
	s.Clauses = append(s.Clauses, c)
}

// Empty reports whether the set constrains nothing.
func (s *PredicateSet) Empty() bool {
	return len(s.Clauses) == 0
}

// Ordering requests result ordering by one attribute. Ties and records
// missing the attribute keep insertion order.
type Ordering struct {
	Key        string
	Type       ValueType
	Descending bool
}
