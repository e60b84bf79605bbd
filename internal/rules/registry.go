package rules

import (
	"slices"

	"github.com/sells-group/cart-monitor/internal/model"
	"github.com/sells-group/cart-monitor/internal/taxonomy"
)

// Severity is how a triggered rule contributes to the roll-ups.
type Severity int

const (
	// Hard rules make a row a hard issue on their own.
	Hard Severity = iota
	// Warn rules make a row present in both sources a warning.
	Warn
)

func (s Severity) String() string {
	if s == Hard {
		return "hard"
	}
	return "warning"
}

// Rule is one named predicate of the fixed rule set. Flag addresses the fact
// row column holding the rule's result. Matcher signals have no eval: their
// column is written by the matcher and only read here.
type Rule struct {
	Name     string
	Severity Severity
	Flag     func(*model.FactRow) *model.Tri
	eval     func(*Engine, *subject) bool
}

// Evaluated reports whether the engine computes the rule, as opposed to
// reading a matcher signal.
func (r Rule) Evaluated() bool { return r.eval != nil }

// subject is a fact row prepared for evaluation.
type subject struct {
	row       *model.FactRow
	status    string
	substatus string
	age       model.Age
}

func (s *subject) is(status, substatus string) bool {
	return s.status == status && s.substatus == substatus
}

var (
	inPreparation = taxonomy.Normalize(taxonomy.StatusInPreparation)
	inPOCreation  = taxonomy.Normalize(taxonomy.StatusInPOCreation)
	completed     = taxonomy.Normalize(taxonomy.StatusCompleted)
	cancelled     = taxonomy.Normalize(taxonomy.StatusCancelled)

	onHold          = taxonomy.Normalize(taxonomy.SubOnHold)
	inError         = taxonomy.Normalize(taxonomy.SubError)
	missingPOCopy   = taxonomy.Normalize(taxonomy.SubMissingPOCopy)
	unequalValues   = taxonomy.Normalize(taxonomy.SubUnequalValues)
	cancelledSync   = taxonomy.Normalize(taxonomy.SubCancelledSync)
	cancelledUnsync = taxonomy.Normalize(taxonomy.SubCancelledUnsync)
)

// registry is the ordered rule set. Order is the order of reasons in issue
// cases.
var registry = []Rule{
	{
		Name:     "inprep_on_hold_gt_30d",
		Severity: Hard,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.InprepOnHoldGT30d },
		eval: func(e *Engine, s *subject) bool {
			return s.is(inPreparation, onHold) && s.age.Over(e.cfg.HoldPreparationDays)
		},
	},
	{
		Name:     "inpo_on_hold_gt_4d",
		Severity: Hard,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.InpoOnHoldGT4d },
		eval: func(e *Engine, s *subject) bool {
			return s.is(inPOCreation, onHold) && s.age.Over(e.cfg.HoldPOCreationDays)
		},
	},
	{
		Name:     "inpo_error_stuck_gt_4d",
		Severity: Hard,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.InpoErrorStuckGT4d },
		eval: func(e *Engine, s *subject) bool {
			return s.is(inPOCreation, inError) && s.age.Over(e.cfg.StuckInErrorDays)
		},
	},
	{
		Name:     "completed_missing_po_copy",
		Severity: Hard,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.CompletedMissingPOCopy },
		eval:     func(_ *Engine, s *subject) bool { return s.is(completed, missingPOCopy) },
	},
	{
		Name:     "completed_unequal_values",
		Severity: Hard,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.CompletedUnequalValues },
		eval:     func(_ *Engine, s *subject) bool { return s.is(completed, unequalValues) },
	},
	{
		Name:     "cancelled_unsynchronized",
		Severity: Hard,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.CancelledUnsynchronized },
		eval: func(_ *Engine, s *subject) bool {
			return s.is(cancelled, cancelledUnsync) && !s.row.ExistsInB
		},
	},
	{
		Name:     "cancelled_synchronized",
		Severity: Warn,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.CancelledSynchronized },
		eval: func(_ *Engine, s *subject) bool {
			return s.is(cancelled, cancelledSync) && s.row.ExistsInB
		},
	},
	{
		Name:     "unknown_status_or_substatus",
		Severity: Warn,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.UnknownStatusOrSubstatus },
		eval:     func(e *Engine, s *subject) bool { return e.vocab.Unknown(s.status, s.substatus) },
	},
	{
		Name:     "status_mismatch",
		Severity: Warn,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.StatusMismatch },
	},
	{
		Name:     "substatus_mismatch",
		Severity: Warn,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.SubstatusMismatch },
	},
	{
		Name:     "value_mismatch",
		Severity: Warn,
		Flag:     func(r *model.FactRow) *model.Tri { return &r.ValueMismatch },
	},
}

// Registry returns the ordered rule set.
func Registry() []Rule {
	return slices.Clone(registry)
}

// Triggered returns the names of every rule whose flag is true on row, in
// registry order. Unknown flags never count.
func Triggered(row *model.FactRow) []string {
	var names []string
	for _, r := range registry {
		if r.Flag(row).True() {
			names = append(names, r.Name)
		}
	}
	return names
}
