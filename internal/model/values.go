package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

// Tri is a nullable boolean. The zero value is Unknown.
type Tri uint8

const (
	Unknown Tri = iota
	False
	True
)

// TriOf converts a bool into a known Tri.
func TriOf(b bool) Tri {
	if b {
		return True
	}
	return False
}

// True reports whether the flag is known and set. Unknown collapses to false.
func (t Tri) True() bool { return t == True }

// Known reports whether the flag carries a value.
func (t Tri) Known() bool { return t != Unknown }

func (t Tri) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tri) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tri) UnmarshalText(b []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(b))) {
	case "":
		*t = Unknown
	case "true", "1", "yes", "y":
		*t = True
	case "false", "0", "no", "n":
		*t = False
	default:
		return eris.Errorf("model: invalid tri-state value %q", string(b))
	}
	return nil
}

// MarshalJSON renders Unknown as null.
func (t Tri) MarshalJSON() ([]byte, error) {
	if t == Unknown {
		return []byte("null"), nil
	}
	return json.Marshal(t == True)
}

// Amount is a nullable decimal monetary value.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// NewAmount returns a valid amount.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{Value: d, Valid: true}
}

// ParseAmount parses a raw cell into an Amount. Currency symbols, spaces and
// thousands separators are stripped; anything still non-numeric is missing.
func ParseAmount(raw string) Amount {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Amount{}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ',', ' ', '\u00a0', '$', '€', '£':
			return -1
		}
		return r
	}, s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	return NewAmount(d)
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	if !a.Valid {
		return []byte{}, nil
	}
	return []byte(a.Value.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Non-numeric text decodes
// as a missing amount rather than an error.
func (a *Amount) UnmarshalText(b []byte) error {
	*a = ParseAmount(string(b))
	return nil
}

// MarshalJSON renders a missing amount as null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value.String())
}

// Timestamp is a nullable UTC instant.
type Timestamp struct {
	Time  time.Time
	Valid bool
}

// NewTimestamp returns a valid timestamp normalized to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC(), Valid: true}
}

// MarshalText implements encoding.TextMarshaler.
func (ts Timestamp) MarshalText() ([]byte, error) {
	if !ts.Valid {
		return []byte{}, nil
	}
	return []byte(ts.Time.UTC().Format(time.RFC3339)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unparseable text is
// treated as missing.
func (ts *Timestamp) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*ts = Timestamp{}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		*ts = Timestamp{}
		return nil
	}
	*ts = NewTimestamp(t)
	return nil
}

// MarshalJSON renders a missing timestamp as null.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.UTC().Format(time.RFC3339))
}

// Age is an elapsed duration in fractional days. The zero value is undefined.
type Age struct {
	days  float64
	valid bool
}

// AgeOf returns a defined age. NaN or infinite input yields an undefined age.
func AgeOf(days float64) Age {
	if math.IsNaN(days) || math.IsInf(days, 0) {
		return Age{}
	}
	return Age{days: days, valid: true}
}

// Defined reports whether the age is known.
func (a Age) Defined() bool { return a.valid }

// Days returns the age in days, or NaN when undefined.
func (a Age) Days() float64 {
	if !a.valid {
		return math.NaN()
	}
	return a.days
}

// Over reports whether the age is defined and strictly greater than limit.
// An undefined age is never over any limit.
func (a Age) Over(limit float64) bool {
	return a.valid && a.days > limit
}

// MarshalText implements encoding.TextMarshaler.
func (a Age) MarshalText() ([]byte, error) {
	if !a.valid {
		return []byte{}, nil
	}
	return []byte(strconv.FormatFloat(a.days, 'f', -1, 64)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Age) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" {
		*a = Age{}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = Age{}
		return nil
	}
	*a = AgeOf(f)
	return nil
}

// MarshalJSON renders an undefined age as null.
func (a Age) MarshalJSON() ([]byte, error) {
	if !a.valid {
		return []byte("null"), nil
	}
	return json.Marshal(a.days)
}
