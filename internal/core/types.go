package core

import "perfusioncore/pkg/domain"

type (
	EntityType              = domain.EntityType
	Sex                     = domain.Sex
	Patient                 = domain.Patient
	PatientFields           = domain.PatientFields
	PatientUpdate           = domain.PatientUpdate
	CalculationType         = domain.CalculationType
	CalculationFields       = domain.CalculationFields
	CalculationResult       = domain.CalculationResult
	PatientWithCalculations = domain.PatientWithCalculations
	Severity                = domain.Severity
	Change                  = domain.Change
	Action                  = domain.Action
	Violation               = domain.Violation
	Result                  = domain.Result
	RuleViolationError      = domain.RuleViolationError
	Rule                    = domain.Rule
	RulesEngine             = domain.RulesEngine
	Transaction             = domain.Transaction
	TransactionView         = domain.TransactionView
	PersistentStore         = domain.PersistentStore
)

const (
	EntityPatient     = domain.EntityPatient
	EntityCalculation = domain.EntityCalculation
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
