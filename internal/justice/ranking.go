package justice

import "fmt"

// Certainty is the 5-point ordinal scale attached to a ranking.
type Certainty string

const (
	VeryUnsure Certainty = "very_unsure"
	Unsure     Certainty = "unsure"
	NoOpinion  Certainty = "no_opinion"
	Sure       Certainty = "sure"
	VerySure   Certainty = "very_sure"
)

// Valid reports whether c is on the canonical scale.
func (c Certainty) Valid() bool {
	switch c {
	case VeryUnsure, Unsure, NoOpinion, Sure, VerySure:
		return true
	}
	return false
}

// Ranking is a strict total order over the four principles plus a certainty
// level. Rank 1 is most preferred.
type Ranking struct {
	Ranks     map[Principle]int `json:"ranks"`
	Certainty Certainty         `json:"certainty"`
}

// Validate enforces the bijection invariant: every principle present exactly
// once, ranks exactly {1,2,3,4}, no ties.
func (r Ranking) Validate() error {
	if len(r.Ranks) != 4 {
		return fmt.Errorf("ranking must cover exactly 4 principles, got %d", len(r.Ranks))
	}
	seen := make(map[int]Principle, 4)
	for p, rank := range r.Ranks {
		if !p.Valid() {
			return fmt.Errorf("unknown principle %q in ranking", p)
		}
		if rank < 1 || rank > 4 {
			return fmt.Errorf("rank %d for %q outside 1..4", rank, p)
		}
		if prev, dup := seen[rank]; dup {
			return fmt.Errorf("rank %d assigned to both %q and %q", rank, prev, p)
		}
		seen[rank] = p
	}
	if !r.Certainty.Valid() {
		return fmt.Errorf("unknown certainty level %q", r.Certainty)
	}
	return nil
}

// At returns the principle holding the given rank. Assumes a validated
// ranking.
func (r Ranking) At(rank int) Principle {
	for p, k := range r.Ranks {
		if k == rank {
			return p
		}
	}
	return ""
}

// Favorite returns the rank-1 principle.
func (r Ranking) Favorite() Principle {
	return r.At(1)
}
