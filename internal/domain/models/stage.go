package models

import (
	"strings"

	"github.com/anthonyjo217/catalyst-transactions-service/pkg/errors"
)

// Stage discriminates the person record variants.
type Stage string

const (
	StageLead     Stage = "LEAD"
	StageCustomer Stage = "CUSTOMER"
	StageEmployee Stage = "EMPLOYEE"
)

// ParseStage matches a type discriminant case-insensitively.
func ParseStage(raw string) (Stage, error) {
	switch Stage(strings.ToUpper(strings.TrimSpace(raw))) {
	case StageLead:
		return StageLead, nil
	case StageCustomer:
		return StageCustomer, nil
	case StageEmployee:
		return StageEmployee, nil
	}
	return "", errors.NewInvalidRecordTypeError(raw)
}

// IsEmployee reports whether records of this stage live in the employee collection.
func (s Stage) IsEmployee() bool {
	return s == StageEmployee
}
