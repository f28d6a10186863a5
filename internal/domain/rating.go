package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Rating is the learner's assessment of how well an item was recalled.
// The numeric values double as the grade G used by the memory model.
type Rating int

// Possible rating values
const (
	RatingAgain Rating = iota + 1
	RatingHard
	RatingGood
	RatingEasy
)

var ratingNames = [...]string{
	RatingAgain: "again",
	RatingHard:  "hard",
	RatingGood:  "good",
	RatingEasy:  "easy",
}

// AllRatings lists every valid rating in ascending order.
var AllRatings = []Rating{RatingAgain, RatingHard, RatingGood, RatingEasy}

// IsValid reports whether r is one of Again, Hard, Good or Easy.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// String returns the lower-case name of the rating.
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating converts a rating name (case-insensitive) into a Rating.
func ParseRating(s string) (Rating, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, r := range AllRatings {
		if ratingNames[r] == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRating, s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rating) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRating, int(r))
	}
	return []byte(ratingNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rating) UnmarshalText(text []byte) error {
	v, err := ParseRating(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// MarshalJSON serializes the rating as a JSON string.
func (r Rating) MarshalJSON() ([]byte, error) {
	text, err := r.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON expects a JSON string holding a rating name.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRating, data)
	}
	return r.UnmarshalText([]byte(s))
}

// Confidence is the learner's self-reported certainty for a correct answer.
type Confidence string

// Possible confidence levels. ConfidenceUnset means the learner gave none.
const (
	ConfidenceUnset  Confidence = ""
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Validate returns ErrInvalidConfidence for unknown levels.
func (c Confidence) Validate() error {
	switch c {
	case ConfidenceUnset, ConfidenceLow, ConfidenceMedium, ConfidenceHigh:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidConfidence, string(c))
	}
}

// RatingFromCorrectness maps a right/wrong answer plus optional confidence to a rating.
// Incorrect answers are always Again. Correct answers map low, medium and high
// confidence to Hard, Good and Easy; without a confidence the answer is Good.
func RatingFromCorrectness(isCorrect bool, confidence Confidence) (Rating, error) {
	if err := confidence.Validate(); err != nil {
		return 0, err
	}
	if !isCorrect {
		return RatingAgain, nil
	}
	switch confidence {
	case ConfidenceLow:
		return RatingHard, nil
	case ConfidenceHigh:
		return RatingEasy, nil
	default:
		return RatingGood, nil
	}
}
