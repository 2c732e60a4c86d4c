package town

// Headcount is the character-type distribution for a game of a given size.
type Headcount struct {
	Townsfolk int
	Outsiders int
	Minions   int
	Demons    int
}

// headcounts maps the non-traveler player count to the standard distribution.
// Travelers are excluded from this count even though they sit in the circle.
var headcounts = map[int]Headcount{
	5:  {Townsfolk: 3, Outsiders: 0, Minions: 1, Demons: 1},
	6:  {Townsfolk: 3, Outsiders: 1, Minions: 1, Demons: 1},
	7:  {Townsfolk: 5, Outsiders: 0, Minions: 1, Demons: 1},
	8:  {Townsfolk: 5, Outsiders: 1, Minions: 1, Demons: 1},
	9:  {Townsfolk: 5, Outsiders: 2, Minions: 1, Demons: 1},
	10: {Townsfolk: 7, Outsiders: 0, Minions: 2, Demons: 1},
	11: {Townsfolk: 7, Outsiders: 1, Minions: 2, Demons: 1},
	12: {Townsfolk: 7, Outsiders: 2, Minions: 2, Demons: 1},
	13: {Townsfolk: 9, Outsiders: 0, Minions: 3, Demons: 1},
	14: {Townsfolk: 9, Outsiders: 1, Minions: 3, Demons: 1},
	15: {Townsfolk: 9, Outsiders: 2, Minions: 3, Demons: 1},
}

// HeadcountFor returns the distribution for the given non-traveler player
// count. ok is false outside the supported 5..15 range; callers report that
// as a friendly message rather than an error.
func HeadcountFor(nonTravelers int) (Headcount, bool) {
	hc, ok := headcounts[nonTravelers]
	return hc, ok
}
