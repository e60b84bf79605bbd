package model

import "strings"

// Source identifies one of the two reporting systems.
type Source string

const (
	SourceA Source = "A"
	SourceB Source = "B"
)

// Tag returns the lowercase column suffix tag for the source ("a" or "b").
func (s Source) Tag() string {
	return strings.ToLower(string(s))
}

// Canonical column names produced by ingestion.
const (
	ColCartID     = "cart_id"
	ColTower      = "tower"
	ColStatus     = "status"
	ColSubstatus  = "substatus"
	ColCreatedAt  = "created_at"
	ColUpdatedAt  = "updated_at"
	ColTotalValue = "total_value"
	ColCurrency   = "currency"
	ColPONumber   = "po_number"
	ColPOPDFSent  = "po_pdf_sent"
)

// SourceRecord is one normalized cart as reported by a single source for a
// single snapshot date.
type SourceRecord struct {
	CartID     string    `csv:"cart_id" json:"cart_id"`
	Tower      string    `csv:"tower" json:"tower,omitempty"`
	Status     string    `csv:"status" json:"status,omitempty"`
	Substatus  string    `csv:"substatus" json:"substatus,omitempty"`
	CreatedAt  Timestamp `csv:"created_at" json:"created_at"`
	UpdatedAt  Timestamp `csv:"updated_at" json:"updated_at"`
	TotalValue Amount    `csv:"total_value" json:"total_value"`
	Currency   string    `csv:"currency" json:"currency,omitempty"`
	PONumber   string    `csv:"po_number" json:"po_number,omitempty"`
	POPDFSent  string    `csv:"po_pdf_sent" json:"po_pdf_sent,omitempty"`
	Source     Source    `csv:"source" json:"source"`
	SourceFile string    `csv:"source_file" json:"source_file"`
	FileDate   string    `csv:"file_date" json:"file_date"`
}

// RecordSet is the collection of records one source reported for one date,
// together with the canonical columns its dump actually carried.
type RecordSet struct {
	Source  Source
	Date    string
	Columns map[string]bool
	Records []SourceRecord
}

// Has reports whether the dump carried the named canonical column.
func (rs *RecordSet) Has(col string) bool {
	if rs == nil {
		return false
	}
	return rs.Columns[col]
}

// Len returns the number of records, treating a nil set as empty.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Records)
}

// Dedupe keeps exactly one record per trimmed cart ID, the last one seen, in
// order of each key's final occurrence. It returns how many records were
// dropped.
func (rs *RecordSet) Dedupe() int {
	if rs == nil || len(rs.Records) == 0 {
		return 0
	}
	last := make(map[string]int, len(rs.Records))
	for i := range rs.Records {
		rs.Records[i].CartID = strings.TrimSpace(rs.Records[i].CartID)
		last[rs.Records[i].CartID] = i
	}
	if len(last) == len(rs.Records) {
		return 0
	}
	kept := make([]SourceRecord, 0, len(last))
	for i, r := range rs.Records {
		if last[r.CartID] == i {
			kept = append(kept, r)
		}
	}
	dropped := len(rs.Records) - len(kept)
	rs.Records = kept
	return dropped
}
