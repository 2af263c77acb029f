package justice

// Ballot is one participant's secret-ballot entry.
type Ballot struct {
	Participant string `json:"participant"`
	Choice      Choice `json:"choice"`
}

// VoteResult records one conducted ballot: every participant's choice, plus
// whether the group reached exact consensus and on what.
type VoteResult struct {
	Round     int      `json:"round"`
	Ballots   []Ballot `json:"ballots"`
	Consensus bool     `json:"consensus"`
	Agreed    *Choice  `json:"agreed,omitempty"`
}

// Tally evaluates a set of ballots for consensus. Consensus requires every
// (principle, constraint) pair to be exactly equal; a near-miss on the
// constraint amount is a failed vote, not a fuzzy match.
func Tally(round int, ballots []Ballot) VoteResult {
	res := VoteResult{Round: round, Ballots: ballots}
	if len(ballots) == 0 {
		return res
	}
	first := ballots[0].Choice
	for _, b := range ballots[1:] {
		if !first.Equal(b.Choice) {
			return res
		}
	}
	res.Consensus = true
	agreed := first
	res.Agreed = &agreed
	return res
}
