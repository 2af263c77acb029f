// Package justice defines the domain model shared by both experiment phases:
// the four distributive-justice principles, principle choices and rankings,
// income classes, and ballot results.
package justice

import "fmt"

// Principle is one of the four distributive-justice principles a participant
// can endorse.
type Principle string

const (
	// FloorMax maximizes the income of the worst-off class.
	FloorMax Principle = "maximizing_floor"
	// AverageMax maximizes the expected (probability-weighted) income.
	AverageMax Principle = "maximizing_average"
	// AverageFloorConstraint maximizes the average subject to a minimum
	// floor income. Requires a constraint amount.
	AverageFloorConstraint Principle = "maximizing_average_floor_constraint"
	// AverageRangeConstraint maximizes the average subject to a maximum
	// spread between the highest and lowest incomes. Requires a constraint
	// amount.
	AverageRangeConstraint Principle = "maximizing_average_range_constraint"
)

// Principles lists all four principles in canonical order.
func Principles() []Principle {
	return []Principle{FloorMax, AverageMax, AverageFloorConstraint, AverageRangeConstraint}
}

// Valid reports whether p is one of the four canonical principles.
func (p Principle) Valid() bool {
	switch p {
	case FloorMax, AverageMax, AverageFloorConstraint, AverageRangeConstraint:
		return true
	}
	return false
}

// RequiresConstraint reports whether the principle carries a dollar
// constraint once chosen.
func (p Principle) RequiresConstraint() bool {
	return p == AverageFloorConstraint || p == AverageRangeConstraint
}

// Label returns a short human-readable name.
func (p Principle) Label() string {
	switch p {
	case FloorMax:
		return "maximizing the floor income"
	case AverageMax:
		return "maximizing the average income"
	case AverageFloorConstraint:
		return "maximizing the average with a floor constraint"
	case AverageRangeConstraint:
		return "maximizing the average with a range constraint"
	default:
		return string(p)
	}
}

// Choice is a principle plus, for the two constrained principles, the dollar
// amount of the constraint. Constraint is nil exactly when the principle does
// not require one.
type Choice struct {
	Principle  Principle `json:"principle"`
	Constraint *int      `json:"constraint,omitempty"`
}

// NewChoice builds an unconstrained choice.
func NewChoice(p Principle) Choice {
	return Choice{Principle: p}
}

// NewConstrainedChoice builds a choice carrying a constraint amount.
func NewConstrainedChoice(p Principle, amount int) Choice {
	return Choice{Principle: p, Constraint: &amount}
}

// Validate enforces the constraint-completeness invariant: constrained
// principles must carry an amount, unconstrained principles must not.
func (c Choice) Validate() error {
	if !c.Principle.Valid() {
		return fmt.Errorf("unknown principle %q", c.Principle)
	}
	if c.Principle.RequiresConstraint() {
		if c.Constraint == nil {
			return fmt.Errorf("principle %q requires a constraint amount", c.Principle)
		}
		if *c.Constraint < 0 {
			return fmt.Errorf("constraint amount must be non-negative, got %d", *c.Constraint)
		}
		return nil
	}
	if c.Constraint != nil {
		return fmt.Errorf("principle %q does not take a constraint amount", c.Principle)
	}
	return nil
}

// Equal reports exact equality of principle and constraint amount. This is
// the consensus comparison: no tolerance, no semantic matching.
func (c Choice) Equal(o Choice) bool {
	if c.Principle != o.Principle {
		return false
	}
	if (c.Constraint == nil) != (o.Constraint == nil) {
		return false
	}
	if c.Constraint == nil {
		return true
	}
	return *c.Constraint == *o.Constraint
}

// String renders the choice for transcripts and logs.
func (c Choice) String() string {
	if c.Constraint != nil {
		return fmt.Sprintf("%s ($%d)", c.Principle.Label(), *c.Constraint)
	}
	return c.Principle.Label()
}
