package models

import (
	"github.com/shopspring/decimal"

	dErrors "homeloan/pkg/domain-errors"
)

type EmploymentType string

const (
	EmploymentEmployed     EmploymentType = "employed"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentOther        EmploymentType = "other"
)

// Employment is the buyer's employment snapshot, fixed at submission.
// Which fields are meaningful depends on Type.
type Employment struct {
	Type              EmploymentType  `json:"type"`
	EmployerName      string          `json:"employer_name,omitempty"`
	JobTitle          string          `json:"job_title,omitempty"`
	YearsOfEmployment int             `json:"years_of_employment,omitempty"`
	BusinessName      string          `json:"business_name,omitempty"`
	BusinessType      string          `json:"business_type,omitempty"`
	Description       string          `json:"description,omitempty"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
}

// Validate enforces the fields each variant requires and strips the rest.
func (e *Employment) Validate() error {
	if e.MonthlyIncome.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "monthly income must not be negative")
	}
	if e.YearsOfEmployment < 0 {
		return dErrors.New(dErrors.CodeValidation, "years of employment must not be negative")
	}
	switch e.Type {
	case EmploymentEmployed:
		if e.EmployerName == "" {
			return dErrors.New(dErrors.CodeValidation, "employer name is required for employed applicants")
		}
		e.BusinessName, e.BusinessType, e.Description = "", "", ""
	case EmploymentSelfEmployed:
		if e.BusinessName == "" {
			return dErrors.New(dErrors.CodeValidation, "business name is required for self-employed applicants")
		}
		e.EmployerName, e.JobTitle, e.Description = "", "", ""
	case EmploymentOther:
		e.EmployerName, e.JobTitle, e.BusinessName, e.BusinessType = "", "", "", ""
	default:
		return dErrors.New(dErrors.CodeValidation, "invalid employment type: "+string(e.Type))
	}
	return nil
}
