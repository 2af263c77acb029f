// Package distribution implements the income-distribution engine: generating
// randomized distribution sets, applying a justice principle to select one,
// drawing an income class under the weighted lottery, and computing
// fixed-class counterfactual payoffs.
//
// Everything in this package is pure given an injected *rand.Rand; the
// multiplier draw and the class lottery are the only randomness.
package distribution

import (
	"fmt"
	"math/rand"

	"frohlich/internal/justice"
)

// Distribution holds the yearly income of each of the five classes,
// high to low. Values are monotonically non-increasing.
type Distribution struct {
	Incomes map[justice.IncomeClass]int `json:"incomes"`
}

// Income returns the income of the given class.
func (d Distribution) Income(class justice.IncomeClass) int {
	return d.Incomes[class]
}

// Floor returns the lowest class income.
func (d Distribution) Floor() int {
	return d.Incomes[justice.ClassLow]
}

// Range returns the spread between the highest and lowest class incomes.
func (d Distribution) Range() int {
	return d.Incomes[justice.ClassHigh] - d.Incomes[justice.ClassLow]
}

// Average returns the probability-weighted average income under the given
// class weights.
func (d Distribution) Average(weights ClassWeights) float64 {
	var avg float64
	for class, w := range weights {
		avg += w * float64(d.Incomes[class])
	}
	return avg
}

// Set is one round's four candidate distributions, scaled by a shared
// multiplier. Immutable once generated.
type Set struct {
	Distributions []Distribution `json:"distributions"`
	Multiplier    float64        `json:"multiplier"`
}

// ClassWeights maps each income class to its lottery probability.
// Weights sum to 1.
type ClassWeights map[justice.IncomeClass]float64

// DefaultClassWeights returns the canonical lottery: 5/10/50/25/10 percent
// high to low.
func DefaultClassWeights() ClassWeights {
	return ClassWeights{
		justice.ClassHigh:    0.05,
		justice.ClassMedHigh: 0.10,
		justice.ClassMedium:  0.50,
		justice.ClassMedLow:  0.25,
		justice.ClassLow:     0.10,
	}
}

// baseIncomes is the canonical pre-multiplier set of four distributions,
// high to low within each row. Floors are 12000/13000/14000/15000.
var baseIncomes = [4][5]int{
	{32000, 27000, 24000, 13000, 12000},
	{28000, 22000, 20000, 17000, 13000},
	{31000, 24000, 21000, 16000, 14000},
	{21000, 20000, 19000, 16000, 15000},
}

// MultiplierRange bounds the uniform multiplier draw. If Fixed is non-nil
// the draw is skipped and the fixed value used instead.
type MultiplierRange struct {
	Lo    float64  `yaml:"lo" json:"lo"`
	Hi    float64  `yaml:"hi" json:"hi"`
	Fixed *float64 `yaml:"fixed,omitempty" json:"fixed,omitempty"`
}

// Validate checks the range is usable.
func (r MultiplierRange) Validate() error {
	if r.Fixed != nil {
		if *r.Fixed <= 0 {
			return fmt.Errorf("fixed multiplier must be positive, got %g", *r.Fixed)
		}
		return nil
	}
	if r.Lo <= 0 || r.Hi < r.Lo {
		return fmt.Errorf("invalid multiplier range [%g, %g]", r.Lo, r.Hi)
	}
	return nil
}

// Generate draws one multiplier from the range (or takes the fixed value)
// and scales the canonical base set by it.
func Generate(rng *rand.Rand, mr MultiplierRange) Set {
	var mult float64
	if mr.Fixed != nil {
		mult = *mr.Fixed
	} else {
		mult = mr.Lo + rng.Float64()*(mr.Hi-mr.Lo)
	}

	classes := justice.IncomeClasses()
	set := Set{Multiplier: mult, Distributions: make([]Distribution, 0, len(baseIncomes))}
	for _, row := range baseIncomes {
		d := Distribution{Incomes: make(map[justice.IncomeClass]int, len(classes))}
		for i, class := range classes {
			d.Incomes[class] = int(float64(row[i]) * mult)
		}
		set.Distributions = append(set.Distributions, d)
	}
	return set
}

// ApplyPrinciple selects the distribution the given choice endorses.
// Returns the index of the selected distribution and a short rationale for
// transcripts. The choice must already be validated; constrained principles
// with no surviving distribution fall back to the unconstrained AverageMax
// rule over the full set.
func ApplyPrinciple(set Set, choice justice.Choice, weights ClassWeights) (int, string) {
	switch choice.Principle {
	case justice.FloorMax:
		idx := argmaxInt(set.Distributions, Distribution.Floor)
		return idx, fmt.Sprintf("highest floor income ($%d)", set.Distributions[idx].Floor())

	case justice.AverageMax:
		idx := argmaxAvg(set.Distributions, weights)
		return idx, fmt.Sprintf("highest expected income ($%.0f)", set.Distributions[idx].Average(weights))

	case justice.AverageFloorConstraint:
		min := *choice.Constraint
		survivors := filterIndexes(set.Distributions, func(d Distribution) bool {
			return d.Floor() >= min
		})
		if len(survivors) == 0 {
			idx := argmaxAvg(set.Distributions, weights)
			return idx, fmt.Sprintf("no distribution satisfies floor >= $%d; fell back to highest average", min)
		}
		idx := argmaxAvgAmong(set.Distributions, survivors, weights)
		return idx, fmt.Sprintf("highest average among floors >= $%d", min)

	case justice.AverageRangeConstraint:
		max := *choice.Constraint
		survivors := filterIndexes(set.Distributions, func(d Distribution) bool {
			return d.Range() <= max
		})
		if len(survivors) == 0 {
			idx := argmaxAvg(set.Distributions, weights)
			return idx, fmt.Sprintf("no distribution satisfies range <= $%d; fell back to highest average", max)
		}
		idx := argmaxAvgAmong(set.Distributions, survivors, weights)
		return idx, fmt.Sprintf("highest average among ranges <= $%d", max)
	}
	// Unreachable with a validated choice.
	return 0, "unknown principle"
}

// DrawClass performs the weighted lottery over the five classes.
func DrawClass(rng *rand.Rand, weights ClassWeights) justice.IncomeClass {
	r := rng.Float64()
	var cum float64
	classes := justice.IncomeClasses()
	for _, class := range classes {
		cum += weights[class]
		if r < cum {
			return class
		}
	}
	// Float rounding can leave cum fractionally below 1.
	return classes[len(classes)-1]
}

// DrawClassAndPayoff runs the lottery against the selected distribution and
// converts the drawn income to a payoff.
func DrawClassAndPayoff(rng *rand.Rand, d Distribution, weights ClassWeights) (justice.IncomeClass, float64) {
	class := DrawClass(rng, weights)
	return class, justice.Payoff(d.Income(class))
}

// Counterfactuals computes, for each of the four principles, the payoff the
// participant would have received under that principle for the class already
// drawn this round. The class is never re-drawn: the map answers "what would
// I have earned under the same luck".
//
// The constraint amount is reused for both constrained principles so the
// table stays comparable to the participant's actual choice. A nil amount
// (participant chose an unconstrained principle) evaluates the constrained
// principles with a zero floor and an unbounded range, which degenerates to
// the AverageMax rule.
func Counterfactuals(set Set, fixedClass justice.IncomeClass, constraint *int, weights ClassWeights) map[justice.Principle]float64 {
	out := make(map[justice.Principle]float64, 4)
	for _, p := range justice.Principles() {
		var choice justice.Choice
		if p.RequiresConstraint() {
			amount := 0
			if constraint != nil {
				amount = *constraint
			} else if p == justice.AverageRangeConstraint {
				// Unbounded range keeps every distribution eligible.
				amount = set.Distributions[argmaxInt(set.Distributions, Distribution.Range)].Range()
			}
			choice = justice.NewConstrainedChoice(p, amount)
		} else {
			choice = justice.NewChoice(p)
		}
		idx, _ := ApplyPrinciple(set, choice, weights)
		out[p] = justice.Payoff(set.Distributions[idx].Income(fixedClass))
	}
	return out
}

func argmaxInt(ds []Distribution, key func(Distribution) int) int {
	best := 0
	for i := 1; i < len(ds); i++ {
		if key(ds[i]) > key(ds[best]) {
			best = i
		}
	}
	return best
}

func argmaxAvg(ds []Distribution, weights ClassWeights) int {
	best := 0
	for i := 1; i < len(ds); i++ {
		if ds[i].Average(weights) > ds[best].Average(weights) {
			best = i
		}
	}
	return best
}

func argmaxAvgAmong(ds []Distribution, idxs []int, weights ClassWeights) int {
	best := idxs[0]
	for _, i := range idxs[1:] {
		if ds[i].Average(weights) > ds[best].Average(weights) {
			best = i
		}
	}
	return best
}

func filterIndexes(ds []Distribution, keep func(Distribution) bool) []int {
	var out []int
	for i, d := range ds {
		if keep(d) {
			out = append(out, i)
		}
	}
	return out
}
