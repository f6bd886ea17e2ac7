package types

import "github.com/m-mizutani/goerr/v2"

// ActionType represents the kind of document or item an action tracks
type ActionType string

const (
	ActionTypePANCard       ActionType = "PAN_CARD"
	ActionTypeAadhaar       ActionType = "AADHAAR"
	ActionTypeBankStatement ActionType = "BANK_STATEMENT"
	ActionTypeIncomeProof   ActionType = "INCOME_PROOF"
	ActionTypeAddressProof  ActionType = "ADDRESS_PROOF"
	ActionTypePhoto         ActionType = "PHOTO"
	ActionTypeSignature     ActionType = "SIGNATURE"
	ActionTypeOther         ActionType = "OTHER"
)

// AllActionTypes returns all valid action types
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionTypePANCard,
		ActionTypeAadhaar,
		ActionTypeBankStatement,
		ActionTypeIncomeProof,
		ActionTypeAddressProof,
		ActionTypePhoto,
		ActionTypeSignature,
		ActionTypeOther,
	}
}

// IsValid checks if the action type is valid
func (t ActionType) IsValid() bool {
	switch t {
	case ActionTypePANCard,
		ActionTypeAadhaar,
		ActionTypeBankStatement,
		ActionTypeIncomeProof,
		ActionTypeAddressProof,
		ActionTypePhoto,
		ActionTypeSignature,
		ActionTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action type
func (t ActionType) String() string {
	return string(t)
}

// ParseActionType parses a string into an ActionType
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid action type", goerr.V("type", s))
	}
	return t, nil
}
