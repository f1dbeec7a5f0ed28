package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// State is the spaced-repetition progress of a thought.
type State int16

const (
	StateNew        State = 0
	StateLearning   State = 1
	StateReview     State = 2
	StateRelearning State = 3
)

func (s State) Valid() bool {
	return s >= StateNew && s <= StateRelearning
}

func (s State) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateLearning:
		return "Learning"
	case StateReview:
		return "Review"
	case StateRelearning:
		return "Relearning"
	default:
		return fmt.Sprintf("State(%d)", int16(s))
	}
}

// ParseState accepts the state name, case-insensitively.
func ParseState(raw string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "new":
		return StateNew, nil
	case "learning":
		return StateLearning, nil
	case "review":
		return StateReview, nil
	case "relearning":
		return StateRelearning, nil
	}
	return 0, fmt.Errorf("unknown srs state %q", raw)
}

func (s State) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid srs state %d", int16(s))
	}
	return int64(s), nil
}

func (s *State) Scan(src interface{}) error {
	var n int64
	switch v := src.(type) {
	case nil:
		*s = StateNew
		return nil
	case int64:
		n = v
	case int32:
		n = int64(v)
	case int16:
		n = int64(v)
	case []byte:
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("scan srs state: %w", err)
		}
	case string:
		if _, err := fmt.Sscan(v, &n); err != nil {
			return fmt.Errorf("scan srs state: %w", err)
		}
	default:
		return fmt.Errorf("scan srs state: unsupported type %T", src)
	}
	st := State(n)
	if !st.Valid() {
		return fmt.Errorf("scan srs state: out of range %d", n)
	}
	*s = st
	return nil
}

func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid srs state %d", int16(s))
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	st, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Grade is a review rating. GradeDiscard is only ever written to review logs.
type Grade int

const (
	GradeDiscard Grade = 0
	GradeAgain   Grade = 1
	GradeHard    Grade = 2
	GradeGood    Grade = 3
	GradeEasy    Grade = 4
)

// Valid reports whether g may be submitted for review.
func (g Grade) Valid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

func (g Grade) String() string {
	switch g {
	case GradeDiscard:
		return "Discard"
	case GradeAgain:
		return "Again"
	case GradeHard:
		return "Hard"
	case GradeGood:
		return "Good"
	case GradeEasy:
		return "Easy"
	default:
		return fmt.Sprintf("Grade(%d)", int(g))
	}
}
