// Package validator runs quality checks over extracted invoices. Checks
// never block ingestion; they surface extraction drift (missing fields,
// totals that do not reconcile) so operators can review the source PDF.
package validator

import "greenledger/internal/domain"

// Severity classifies how a failed check affects the overall status.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Status is the aggregate outcome of a validation run.
type Status string

const (
	StatusValid   Status = "valid"
	StatusWarning Status = "warning"
	StatusInvalid Status = "invalid"
)

// Rule is a single built-in quality check.
type Rule interface {
	RuleKey() string
	RuleName() string
	Severity() Severity
	Validate(inv *domain.Invoice) []Result
}

// Result is the outcome of one check against one field.
type Result struct {
	RuleKey       string `json:"rule_key"`
	Passed        bool   `json:"passed"`
	FieldPath     string `json:"field_path"`
	ExpectedValue string `json:"expected_value"`
	ActualValue   string `json:"actual_value"`
	Message       string `json:"message"`
	Severity      string `json:"severity"`
}

// Report aggregates all results for one invoice.
type Report struct {
	Status  Status   `json:"status"`
	Summary Summary  `json:"summary"`
	Results []Result `json:"results"`
}

// Summary holds aggregate counts of validation results.
type Summary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
}
