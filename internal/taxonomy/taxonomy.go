// Package taxonomy holds the cart status vocabulary and the label
// normalization applied before any status comparison.
package taxonomy

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Canonical status and substatus labels referenced by the rule set.
const (
	StatusInPreparation = "In Preparation"
	StatusInPOCreation  = "In PO Creation"
	StatusCompleted     = "Completed"
	StatusCancelled     = "Cancelled"

	SubPreparing          = "Preparing"
	SubOnHold             = "On Hold"
	SubCreating           = "Creating"
	SubError              = "Error"
	SubProviderPOAssigned = "Provider PO Assigned"
	SubMissingPOCopy      = "Missing PO Copy"
	SubUnequalValues      = "Unequal Values"
	SubCancelledSync      = "Cancelled – Synchronized"
	SubCancelledUnsync    = "Cancelled – Unsynchronized"
)

// Taxonomy is the configured status vocabulary, as written by people.
type Taxonomy struct {
	Statuses    []string            `yaml:"statuses"`
	Substatuses map[string][]string `yaml:"substatuses"`
}

// Default returns the built-in cart vocabulary.
func Default() Taxonomy {
	return Taxonomy{
		Statuses: []string{StatusInPreparation, StatusInPOCreation, StatusCompleted, StatusCancelled},
		Substatuses: map[string][]string{
			StatusInPreparation: {SubPreparing, SubOnHold},
			StatusInPOCreation:  {SubCreating, SubError, SubOnHold},
			StatusCompleted:     {SubProviderPOAssigned, SubMissingPOCopy, SubUnequalValues, SubError},
			StatusCancelled:     {SubCancelledSync, SubCancelledUnsync},
		},
	}
}

// LoadFile reads a taxonomy from a YAML file with a top-level "taxonomy" key.
// Statuses listed only as substatus keys are added to the status list.
func LoadFile(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, eris.Wrapf(err, "taxonomy: read %s", path)
	}

	var wrapper struct {
		Taxonomy Taxonomy `yaml:"taxonomy"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Taxonomy{}, eris.Wrap(err, "taxonomy: parse")
	}

	tx := wrapper.Taxonomy
	if len(tx.Statuses) == 0 && len(tx.Substatuses) == 0 {
		return Taxonomy{}, eris.Errorf("taxonomy: %s defines no statuses", path)
	}

	known := make(map[string]bool, len(tx.Statuses))
	for _, s := range tx.Statuses {
		known[Normalize(s)] = true
	}
	for s := range tx.Substatuses {
		if !known[Normalize(s)] {
			tx.Statuses = append(tx.Statuses, s)
			known[Normalize(s)] = true
		}
	}
	return tx, nil
}

var (
	dashReplacer = strings.NewReplacer(
		"‐", "-", // hyphen
		"‑", "-", // non-breaking hyphen
		"‒", "-", // figure dash
		"–", "-", // en dash
		"—", "-", // em dash
		"―", "-", // horizontal bar
		"−", "-", // minus sign
	)
	spaceRe = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes a status label: NFKC, dash variants folded to "-",
// whitespace trimmed and collapsed, lowercased. Empty input stays empty.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)
	s = dashReplacer.Replace(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.ToLower(strings.TrimSpace(s))
}

// Vocabulary is a taxonomy compiled to normalized lookup sets.
type Vocabulary struct {
	statuses    map[string]bool
	substatuses map[string]map[string]bool
}

// Compile normalizes every label of the taxonomy so lookups are symmetric
// with normalized row values.
func (t Taxonomy) Compile() *Vocabulary {
	v := &Vocabulary{
		statuses:    make(map[string]bool, len(t.Statuses)),
		substatuses: make(map[string]map[string]bool, len(t.Substatuses)),
	}
	for _, s := range t.Statuses {
		if n := Normalize(s); n != "" {
			v.statuses[n] = true
		}
	}
	for status, subs := range t.Substatuses {
		n := Normalize(status)
		if n == "" {
			continue
		}
		set := v.substatuses[n]
		if set == nil {
			set = make(map[string]bool, len(subs))
			v.substatuses[n] = set
		}
		for _, sub := range subs {
			if sn := Normalize(sub); sn != "" {
				set[sn] = true
			}
		}
	}
	return v
}

// KnownStatus reports whether a normalized status is in the vocabulary.
func (v *Vocabulary) KnownStatus(status string) bool {
	return v.statuses[status]
}

// AllowedSubstatus reports whether a normalized substatus is allowed for a
// normalized status.
func (v *Vocabulary) AllowedSubstatus(status, substatus string) bool {
	return v.substatuses[status][substatus]
}

// Unknown reports whether a normalized (status, substatus) pair falls outside
// the vocabulary. Empty values are absent, never unknown.
func (v *Vocabulary) Unknown(status, substatus string) bool {
	if status == "" {
		return false
	}
	if !v.KnownStatus(status) {
		return true
	}
	return substatus != "" && !v.AllowedSubstatus(status, substatus)
}
