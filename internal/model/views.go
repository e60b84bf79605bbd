package model

// DailyKPI is one row of the daily KPI view.
type DailyKPI struct {
	SnapshotDate   string  `csv:"snapshot_date" json:"snapshot_date"`
	Rows           int     `csv:"rows" json:"rows"`
	OrdersA        int     `csv:"orders_a" json:"orders_a"`
	OrdersB        int     `csv:"orders_b" json:"orders_b"`
	MissingInB     int     `csv:"missing_in_b" json:"missing_in_b"`
	MissingInA     int     `csv:"missing_in_a" json:"missing_in_a"`
	AnyMismatch    int     `csv:"any_mismatch" json:"any_mismatch"`
	HardIssue      int     `csv:"hard_issue" json:"hard_issue"`
	Warning        int     `csv:"warning" json:"warning"`
	HasIssue       int     `csv:"has_issue" json:"has_issue"`
	IssueRate      float64 `csv:"issue_rate" json:"issue_rate"`
	HardIssueRate  float64 `csv:"hard_issue_rate" json:"hard_issue_rate"`
	WarningRate    float64 `csv:"warning_rate" json:"warning_rate"`
	MismatchRate   float64 `csv:"mismatch_rate" json:"mismatch_rate"`
	MissingInBRate float64 `csv:"missing_in_b_rate" json:"missing_in_b_rate"`
}

// StatusCount is one row of the status distribution view. Empty status or
// substatus is its own group.
type StatusCount struct {
	SnapshotDate string `csv:"snapshot_date" json:"snapshot_date"`
	Status       string `csv:"status" json:"status"`
	Substatus    string `csv:"substatus" json:"substatus"`
	Count        int    `csv:"count" json:"count"`
}

// AgingCount is one row of the aging bucket view.
type AgingCount struct {
	SnapshotDate string `csv:"snapshot_date" json:"snapshot_date"`
	Status       string `csv:"status" json:"status"`
	Substatus    string `csv:"substatus" json:"substatus"`
	AgeBucket    string `csv:"age_bucket" json:"age_bucket"`
	Count        int    `csv:"count" json:"count"`
}

// CaseType classifies an issue case.
type CaseType string

const (
	CaseHard    CaseType = "hard"
	CaseWarning CaseType = "warning"
)

// IssueCase is one flagged fact row with its human-readable reasons.
type IssueCase struct {
	SnapshotDate string   `csv:"snapshot_date" json:"snapshot_date"`
	CaseType     CaseType `csv:"case_type" json:"case_type"`
	CartID       string   `csv:"cart_id" json:"cart_id"`
	StatusA      string   `csv:"status_a" json:"status_a"`
	SubstatusA   string   `csv:"substatus_a" json:"substatus_a"`
	StatusB      string   `csv:"status_b" json:"status_b"`
	SubstatusB   string   `csv:"substatus_b" json:"substatus_b"`
	AgeDays      Age      `csv:"age_days" json:"age_days"`
	ExistsInA    bool     `csv:"exists_in_a" json:"exists_in_a"`
	ExistsInB    bool     `csv:"exists_in_b" json:"exists_in_b"`
	HardIssue    bool     `csv:"hard_issue" json:"hard_issue"`
	Warning      bool     `csv:"warning" json:"warning"`
	HasIssue     bool     `csv:"has_issue" json:"has_issue"`
	AnyMismatch  bool     `csv:"any_mismatch" json:"any_mismatch"`
	Reasons      string   `csv:"reasons" json:"reasons"`
	SourceFileA  string   `csv:"source_file_a" json:"source_file_a"`
	SourceFileB  string   `csv:"source_file_b" json:"source_file_b"`
}
