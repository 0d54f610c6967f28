package validator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"greenledger/internal/domain"
)

// mathTolerance absorbs rounding differences between printed totals and
// the line items they summarize.
var mathTolerance = decimal.RequireFromString("0.05")

// requiredRule checks that a header field is not empty.
type requiredRule struct {
	ruleKey   string
	ruleName  string
	fieldPath string
	severity  Severity
	extract   func(*domain.Invoice) string
}

func (r *requiredRule) RuleKey() string    { return r.ruleKey }
func (r *requiredRule) RuleName() string   { return r.ruleName }
func (r *requiredRule) Severity() Severity { return r.severity }

func (r *requiredRule) Validate(inv *domain.Invoice) []Result {
	val := r.extract(inv)
	passed := val != ""
	msg := fmt.Sprintf("%s: %s is present", r.ruleName, r.fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s is missing or empty", r.ruleName, r.fieldPath)
	}
	return []Result{{
		RuleKey: r.ruleKey, Passed: passed, FieldPath: r.fieldPath,
		ExpectedValue: "non-empty value", ActualValue: val,
		Message: msg, Severity: string(r.severity),
	}}
}

// mathRule checks an arithmetic relationship between extracted amounts.
type mathRule struct {
	ruleKey  string
	ruleName string
	severity Severity
	validate func(*domain.Invoice) []Result
}

func (r *mathRule) RuleKey() string    { return r.ruleKey }
func (r *mathRule) RuleName() string   { return r.ruleName }
func (r *mathRule) Severity() Severity { return r.severity }

func (r *mathRule) Validate(inv *domain.Invoice) []Result {
	results := r.validate(inv)
	for i := range results {
		results[i].RuleKey = r.ruleKey
		results[i].Severity = string(r.severity)
	}
	return results
}

func approxEqual(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(mathTolerance)
}

func mathResult(passed bool, fieldPath, expected, actual, ruleName string) Result {
	msg := fmt.Sprintf("%s: %s reconciles", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s mismatch (expected %s, got %s)", ruleName, fieldPath, expected, actual)
	}
	return Result{
		Passed: passed, FieldPath: fieldPath,
		ExpectedValue: expected, ActualValue: actual, Message: msg,
	}
}

// statusRule flags invoices whose fulfillment status could not be read.
type statusRule struct{}

func (statusRule) RuleKey() string    { return "status.known" }
func (statusRule) RuleName() string   { return "Status: Known Fulfillment Status" }
func (statusRule) Severity() Severity { return SeverityWarning }

func (statusRule) Validate(inv *domain.Invoice) []Result {
	passed := inv.InvoiceStatus != domain.StatusUnknown && inv.InvoiceStatus != ""
	msg := "Status: Known Fulfillment Status: status recognized"
	if !passed {
		msg = "Status: Known Fulfillment Status: status missing or unrecognized"
	}
	return []Result{{
		RuleKey: "status.known", Passed: passed, FieldPath: "invoice_status",
		ExpectedValue: "fulfilled, pending or cancelled", ActualValue: string(inv.InvoiceStatus),
		Message: msg, Severity: string(SeverityWarning),
	}}
}

// BuiltinRules returns the default rule set, in evaluation order.
func BuiltinRules() []Rule {
	return []Rule{
		&requiredRule{
			ruleKey: "req.invoice_number", ruleName: "Required: Invoice Number",
			fieldPath: "invoice_number", severity: SeverityError,
			extract: func(inv *domain.Invoice) string { return inv.InvoiceNumber },
		},
		&requiredRule{
			ruleKey: "req.receiver", ruleName: "Required: Receiver",
			fieldPath: "receiver", severity: SeverityError,
			extract: func(inv *domain.Invoice) string { return inv.Receiver },
		},
		&requiredRule{
			ruleKey: "req.distributor", ruleName: "Required: Distributor",
			fieldPath: "distributor", severity: SeverityWarning,
			extract: func(inv *domain.Invoice) string { return inv.Distributor },
		},
		&requiredRule{
			// An empty date is only acceptable when the source page was
			// corrupted; otherwise the header parse missed it.
			ruleKey: "req.invoice_date", ruleName: "Required: Invoice Date",
			fieldPath: "invoice_date", severity: SeverityWarning,
			extract: func(inv *domain.Invoice) string {
				if inv.DateExtractionFailed {
					return "corrupted source"
				}
				return inv.InvoiceDate
			},
		},
		statusRule{},
		&mathRule{
			ruleKey: "math.line_item.total_with_excise", ruleName: "Math: Line Item Total With Excise",
			severity: SeverityWarning,
			validate: func(inv *domain.Invoice) []Result {
				results := make([]Result, 0, len(inv.LineItems))
				for i := range inv.LineItems {
					item := &inv.LineItems[i]
					fp := fmt.Sprintf("line_items[%d].total_cost_with_excise", i)
					passed := item.TotalWithExcise.GreaterThanOrEqual(item.TotalCost)
					results = append(results, mathResult(passed, fp,
						">= "+item.TotalCost.StringFixed(2), item.TotalWithExcise.StringFixed(2),
						"Math: Line Item Total With Excise"))
				}
				return results
			},
		},
		&mathRule{
			ruleKey: "math.line_item_sum", ruleName: "Math: Line Item Sum",
			severity: SeverityWarning,
			validate: func(inv *domain.Invoice) []Result {
				if len(inv.LineItems) == 0 {
					return nil
				}
				expected := inv.InvoiceSubtotal.Add(inv.InvoiceTax)
				sum := inv.LineItemTotal()
				passed := approxEqual(sum, expected)
				return []Result{mathResult(passed, "line_items",
					expected.StringFixed(2), sum.StringFixed(2), "Math: Line Item Sum")}
			},
		},
		&mathRule{
			ruleKey: "math.invoice_total", ruleName: "Math: Invoice Total",
			severity: SeverityWarning,
			validate: func(inv *domain.Invoice) []Result {
				if inv.InvoiceTotal.IsZero() {
					return nil
				}
				expected := inv.InvoiceSubtotal.Sub(inv.InvoiceDiscount).
					Add(inv.InvoiceFees).Add(inv.InvoiceTax)
				passed := approxEqual(inv.InvoiceTotal, expected)
				return []Result{mathResult(passed, "invoice_total",
					expected.StringFixed(2), inv.InvoiceTotal.StringFixed(2), "Math: Invoice Total")}
			},
		},
		&mathRule{
			ruleKey: "math.balance", ruleName: "Math: Balance",
			severity: SeverityWarning,
			validate: func(inv *domain.Invoice) []Result {
				if inv.InvoiceTotal.IsZero() {
					return nil
				}
				expected := inv.InvoiceTotal.Sub(inv.Payments)
				passed := approxEqual(inv.Balance, expected)
				return []Result{mathResult(passed, "balance",
					expected.StringFixed(2), inv.Balance.StringFixed(2), "Math: Balance")}
			},
		},
	}
}
