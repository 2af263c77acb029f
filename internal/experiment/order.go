package experiment

import "math/rand"

// speakingOrder draws a random permutation of n participants for one
// discussion round. lastSpeaker is the index of the previous round's final
// speaker (-1 for the first round); the permutation is re-drawn until that
// participant does not open the new round, so nobody gets back-to-back
// turns across a round boundary.
func speakingOrder(rng *rand.Rand, n, lastSpeaker int) []int {
	order := rng.Perm(n)
	if n < 2 || lastSpeaker < 0 {
		return order
	}
	for order[0] == lastSpeaker {
		order = rng.Perm(n)
	}
	return order
}
