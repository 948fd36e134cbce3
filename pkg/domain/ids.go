// Package domain holds identifier and role primitives shared by every bounded context.
//
// IDs are distinct named types over uuid.UUID so an ApplicationID can never be
// passed where a MortgageID is expected. Construct them with the Parse functions
// at trust boundaries, or with the New functions when minting.
package domain

import (
	"github.com/google/uuid"

	dErrors "homeloan/pkg/domain-errors"
)

type (
	ApplicationID uuid.UUID
	MortgageID    uuid.UUID
	UserID        uuid.UUID
	BankID        uuid.UUID
	PropertyID    uuid.UUID
)

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id MortgageID) String() string    { return uuid.UUID(id).String() }
func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id BankID) String() string        { return uuid.UUID(id).String() }
func (id PropertyID) String() string    { return uuid.UUID(id).String() }

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id MortgageID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id BankID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }
func NewMortgageID() MortgageID       { return MortgageID(uuid.New()) }

func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application ID")
	return ApplicationID(u), err
}

func ParseMortgageID(s string) (MortgageID, error) {
	u, err := parseUUID(s, "mortgage ID")
	return MortgageID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user ID")
	return UserID(u), err
}

func ParseBankID(s string) (BankID, error) {
	u, err := parseUUID(s, "bank ID")
	return BankID(u), err
}

func ParsePropertyID(s string) (PropertyID, error) {
	u, err := parseUUID(s, "property ID")
	return PropertyID(u), err
}

// parseUUID rejects empty input and the nil UUID in addition to malformed values.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, label+" must not be nil")
	}
	return u, nil
}

// Text encoding lets IDs travel through JSON documents and query params as
// canonical UUID strings.

func (id ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id MortgageID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id BankID) MarshalText() ([]byte, error)        { return uuid.UUID(id).MarshalText() }
func (id PropertyID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *ApplicationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *MortgageID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *UserID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BankID) UnmarshalText(b []byte) error        { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PropertyID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
