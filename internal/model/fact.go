package model

// Side holds the fields one source contributed to a fact row.
type Side struct {
	Tower      string
	Status     string
	Substatus  string
	CreatedAt  Timestamp
	UpdatedAt  Timestamp
	TotalValue Amount
	Currency   string
	PONumber   string
	POPDFSent  string
	SourceFile string
}

// SideOf copies the per-source fields out of a record.
func SideOf(r SourceRecord) Side {
	return Side{
		Tower:      r.Tower,
		Status:     r.Status,
		Substatus:  r.Substatus,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
		TotalValue: r.TotalValue,
		Currency:   r.Currency,
		PONumber:   r.PONumber,
		POPDFSent:  r.POPDFSent,
		SourceFile: r.SourceFile,
	}
}

// Matched holds the columns written by the matcher: the join key, both
// tagged sides, existence and mismatch flags.
type Matched struct {
	SnapshotDate string `csv:"snapshot_date" json:"snapshot_date"`
	CartID       string `csv:"cart_id" json:"cart_id"`
	ExistsInA    bool   `csv:"exists_in_a" json:"exists_in_a"`
	ExistsInB    bool   `csv:"exists_in_b" json:"exists_in_b"`

	TowerA      string    `csv:"tower_a" json:"tower_a,omitempty"`
	StatusA     string    `csv:"status_a" json:"status_a,omitempty"`
	SubstatusA  string    `csv:"substatus_a" json:"substatus_a,omitempty"`
	CreatedAtA  Timestamp `csv:"created_at_a" json:"created_at_a"`
	UpdatedAtA  Timestamp `csv:"updated_at_a" json:"updated_at_a"`
	TotalValueA Amount    `csv:"total_value_a" json:"total_value_a"`
	CurrencyA   string    `csv:"currency_a" json:"currency_a,omitempty"`
	PONumberA   string    `csv:"po_number_a" json:"po_number_a,omitempty"`
	POPDFSentA  string    `csv:"po_pdf_sent_a" json:"po_pdf_sent_a,omitempty"`
	SourceFileA string    `csv:"source_file_a" json:"source_file_a,omitempty"`

	TowerB      string    `csv:"tower_b" json:"tower_b,omitempty"`
	StatusB     string    `csv:"status_b" json:"status_b,omitempty"`
	SubstatusB  string    `csv:"substatus_b" json:"substatus_b,omitempty"`
	CreatedAtB  Timestamp `csv:"created_at_b" json:"created_at_b"`
	UpdatedAtB  Timestamp `csv:"updated_at_b" json:"updated_at_b"`
	TotalValueB Amount    `csv:"total_value_b" json:"total_value_b"`
	CurrencyB   string    `csv:"currency_b" json:"currency_b,omitempty"`
	PONumberB   string    `csv:"po_number_b" json:"po_number_b,omitempty"`
	POPDFSentB  string    `csv:"po_pdf_sent_b" json:"po_pdf_sent_b,omitempty"`
	SourceFileB string    `csv:"source_file_b" json:"source_file_b,omitempty"`

	StatusMismatch    Tri  `csv:"status_mismatch" json:"status_mismatch"`
	SubstatusMismatch Tri  `csv:"substatus_mismatch" json:"substatus_mismatch"`
	ValueMismatch     Tri  `csv:"value_mismatch" json:"value_mismatch"`
	AnyMismatch       bool `csv:"any_mismatch" json:"any_mismatch"`
}

// SetSide fills the tagged columns for the given source.
func (m *Matched) SetSide(src Source, s Side) {
	switch src {
	case SourceA:
		m.TowerA, m.StatusA, m.SubstatusA = s.Tower, s.Status, s.Substatus
		m.CreatedAtA, m.UpdatedAtA, m.TotalValueA = s.CreatedAt, s.UpdatedAt, s.TotalValue
		m.CurrencyA, m.PONumberA, m.POPDFSentA, m.SourceFileA = s.Currency, s.PONumber, s.POPDFSent, s.SourceFile
	case SourceB:
		m.TowerB, m.StatusB, m.SubstatusB = s.Tower, s.Status, s.Substatus
		m.CreatedAtB, m.UpdatedAtB, m.TotalValueB = s.CreatedAt, s.UpdatedAt, s.TotalValue
		m.CurrencyB, m.PONumberB, m.POPDFSentB, m.SourceFileB = s.Currency, s.PONumber, s.POPDFSent, s.SourceFile
	}
}

// Side returns the tagged columns for the given source.
func (m *Matched) Side(src Source) Side {
	if src == SourceB {
		return Side{
			Tower: m.TowerB, Status: m.StatusB, Substatus: m.SubstatusB,
			CreatedAt: m.CreatedAtB, UpdatedAt: m.UpdatedAtB, TotalValue: m.TotalValueB,
			Currency: m.CurrencyB, PONumber: m.PONumberB, POPDFSent: m.POPDFSentB, SourceFile: m.SourceFileB,
		}
	}
	return Side{
		Tower: m.TowerA, Status: m.StatusA, Substatus: m.SubstatusA,
		CreatedAt: m.CreatedAtA, UpdatedAt: m.UpdatedAtA, TotalValue: m.TotalValueA,
		Currency: m.CurrencyA, PONumber: m.PONumberA, POPDFSent: m.POPDFSentA, SourceFile: m.SourceFileA,
	}
}

// MissingInA reports a row only source B knows about.
func (m *Matched) MissingInA() bool { return m.ExistsInB && !m.ExistsInA }

// MissingInB reports a row only source A knows about.
func (m *Matched) MissingInB() bool { return m.ExistsInA && !m.ExistsInB }

// InBoth reports a row present in both sources.
func (m *Matched) InBoth() bool { return m.ExistsInA && m.ExistsInB }

// OneSided reports a row present in exactly one source.
func (m *Matched) OneSided() bool { return m.ExistsInA != m.ExistsInB }

// Flags holds the columns added by the rule engine. Every flag is Unknown
// until the engine has evaluated the row.
type Flags struct {
	AgeDays Age `csv:"age_days" json:"age_days"`

	InprepOnHoldGT30d        Tri `csv:"inprep_on_hold_gt_30d" json:"inprep_on_hold_gt_30d"`
	InpoOnHoldGT4d           Tri `csv:"inpo_on_hold_gt_4d" json:"inpo_on_hold_gt_4d"`
	InpoErrorStuckGT4d       Tri `csv:"inpo_error_stuck_gt_4d" json:"inpo_error_stuck_gt_4d"`
	CompletedMissingPOCopy   Tri `csv:"completed_missing_po_copy" json:"completed_missing_po_copy"`
	CompletedUnequalValues   Tri `csv:"completed_unequal_values" json:"completed_unequal_values"`
	CancelledUnsynchronized  Tri `csv:"cancelled_unsynchronized" json:"cancelled_unsynchronized"`
	CancelledSynchronized    Tri `csv:"cancelled_synchronized" json:"cancelled_synchronized"`
	UnknownStatusOrSubstatus Tri `csv:"unknown_status_or_substatus" json:"unknown_status_or_substatus"`

	HardIssue Tri `csv:"hard_issue" json:"hard_issue"`
	Warning   Tri `csv:"warning" json:"warning"`
	HasIssue  Tri `csv:"has_issue" json:"has_issue"`
}

// FactRow is one (snapshot_date, cart_id) row of the fact table.
type FactRow struct {
	Matched
	Flags
}

// FactKey is the unique key of the fact table.
type FactKey struct {
	SnapshotDate string
	CartID       string
}

// Key returns the row's unique key.
func (m *Matched) Key() FactKey {
	return FactKey{SnapshotDate: m.SnapshotDate, CartID: m.CartID}
}
