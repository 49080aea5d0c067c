package game

// Dice is the randomness source engines roll against. *rand.Rand satisfies it;
// tests substitute a scripted sequence.
type Dice interface {
	Float64() float64
	Int63n(n int64) int64
}

// RollPercent reports whether a 0-100 roll lands under chance.
func RollPercent(d Dice, chance float64) bool {
	return d.Float64()*100 < chance
}

// RandRange returns a uniform value in [min, max].
func RandRange(d Dice, min, max int64) int64 {
	if max <= min {
		return min
	}
	return min + d.Int63n(max-min+1)
}
