package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrDuplicateOperation = errors.New("duplicate operation")

	ErrInvalidIBAN          = errors.New("invalid iban")
	ErrMandateInactive      = errors.New("mandate not active")
	ErrNoActiveMandate      = errors.New("no active mandate")
	ErrBatchNotEditable     = errors.New("batch no longer editable")
	ErrMembershipOverlap    = errors.New("overlapping active membership")
	ErrAmendmentOpen        = errors.New("member already has an open amendment")
	ErrAgreementNotActive   = errors.New("agreement not active")
	ErrDonorMismatch        = errors.New("donor does not match agreement")
	ErrSettingsIncomplete   = errors.New("organisation settings incomplete")
	ErrTerminationImmutable = errors.New("termination request not in an editable state")
)
