package justice

// IncomeClass is one of the five ordered income strata within a
// distribution, from high to low.
type IncomeClass string

const (
	ClassHigh      IncomeClass = "high"
	ClassMedHigh   IncomeClass = "medium_high"
	ClassMedium    IncomeClass = "medium"
	ClassMedLow    IncomeClass = "medium_low"
	ClassLow       IncomeClass = "low"
)

// IncomeClasses lists the five classes in canonical high-to-low order.
func IncomeClasses() []IncomeClass {
	return []IncomeClass{ClassHigh, ClassMedHigh, ClassMedium, ClassMedLow, ClassLow}
}

// Valid reports whether c is one of the five canonical classes.
func (c IncomeClass) Valid() bool {
	switch c {
	case ClassHigh, ClassMedHigh, ClassMedium, ClassMedLow, ClassLow:
		return true
	}
	return false
}

// PayoffRate converts a yearly income into a participant payoff:
// one dollar of payoff per $10,000 of income.
const PayoffRate = 10000.0

// Payoff converts an income figure to the payoff actually credited to a
// participant's bank balance.
func Payoff(income int) float64 {
	return float64(income) / PayoffRate
}
