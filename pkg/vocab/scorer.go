package vocab

const (
	// consecutiveBonus is the score bonus per consecutive unassisted read.
	consecutiveBonus = 0.02
	// maxConsecutiveBonus caps the streak bonus.
	maxConsecutiveBonus = 0.10
	// knownThreshold is the score at which a word counts as known in summaries.
	knownThreshold = 0.8
)

// CalculateScore derives the mastery score in [0,1] from the raw counters.
// An unseen word scores 0. Otherwise the score is dominated by the fraction
// of reads that needed no lookup, with a small bonus for the current streak.
func CalculateScore(timesSeen, timesLookedUp, consecutiveCorrect int) float64 {
	if timesSeen <= 0 {
		return 0.0
	}

	lookupRatio := float64(timesLookedUp) / float64(timesSeen)
	base := 1.0 - lookupRatio

	bonus := float64(consecutiveCorrect) * consecutiveBonus
	if bonus > maxConsecutiveBonus {
		bonus = maxConsecutiveBonus
	}

	score := base*0.7 + (base+bonus)*0.3
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
