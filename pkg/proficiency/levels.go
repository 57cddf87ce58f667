// Package proficiency estimates the learner's level from reading behavior and
// derives reader settings and content-difficulty targets from it.
package proficiency

import "fmt"

// Level is the categorical proficiency level, JLPT-ish bands.
type Level string

const (
	LevelBeginner          Level = "beginner"
	LevelElementary        Level = "elementary"
	LevelIntermediate      Level = "intermediate"
	LevelUpperIntermediate Level = "upper_intermediate"
	LevelAdvanced          Level = "advanced"
)

// lookupRateBands maps a lookup rate (lookups per 100 tokens) to a level.
// Evaluated in order, first match wins, so the lowest matching band decides.
var lookupRateBands = []struct {
	below float64
	level Level
}{
	{2.0, LevelAdvanced},
	{5.0, LevelUpperIntermediate},
	{10.0, LevelIntermediate},
	{20.0, LevelElementary},
}

// LevelForLookupRate returns the level whose band contains rate.
func LevelForLookupRate(rate float64) Level {
	for _, band := range lookupRateBands {
		if rate < band.below {
			return band.level
		}
	}
	return LevelBeginner
}

// ParseLevel validates a stored level string.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelBeginner, LevelElementary, LevelIntermediate, LevelUpperIntermediate, LevelAdvanced:
		return Level(s), nil
	}
	return "", fmt.Errorf("invalid proficiency level %q", s)
}

// Rating is learner feedback on content difficulty.
type Rating string

const (
	RatingEasy      Rating = "easy"
	RatingJustRight Rating = "just_right"
	RatingHard      Rating = "hard"
)

// ParseRating validates a rating string at the boundary.
func ParseRating(s string) (Rating, error) {
	switch Rating(s) {
	case RatingEasy, RatingJustRight, RatingHard:
		return Rating(s), nil
	}
	return "", fmt.Errorf("invalid difficulty rating %q (want easy, just_right or hard)", s)
}
