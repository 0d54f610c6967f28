package validator

import "greenledger/internal/domain"

// Engine runs a fixed rule set against extracted invoices.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine with the built-in rule set.
func NewEngine() *Engine {
	return &Engine{rules: BuiltinRules()}
}

// NewEngineWithRules creates an engine with a custom rule set.
func NewEngineWithRules(rules []Rule) *Engine {
	return &Engine{rules: rules}
}

// Validate runs every rule and aggregates the results. Error records are
// not validated; callers should check Invoice.Failed first.
func (e *Engine) Validate(inv *domain.Invoice) *Report {
	report := &Report{Status: StatusValid, Results: []Result{}}

	for _, rule := range e.rules {
		for _, res := range rule.Validate(inv) {
			report.Results = append(report.Results, res)
			report.Summary.Total++
			if res.Passed {
				report.Summary.Passed++
				continue
			}
			switch rule.Severity() {
			case SeverityError:
				report.Summary.Errors++
				report.Status = StatusInvalid
			default:
				report.Summary.Warnings++
				if report.Status != StatusInvalid {
					report.Status = StatusWarning
				}
			}
		}
	}
	return report
}
