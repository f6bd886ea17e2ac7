package types

import "github.com/m-mizutani/goerr/v2"

// DeliverableType represents the expected form of the requested item
type DeliverableType string

const (
	DeliverablePhoto      DeliverableType = "PHOTO"
	DeliverablePDF        DeliverableType = "PDF"
	DeliverableNumber     DeliverableType = "NUMBER"
	DeliverableText       DeliverableType = "TEXT"
	DeliverableURL        DeliverableType = "URL"
	DeliverableAttachment DeliverableType = "ATTACHMENT"
)

// IsValid checks if the deliverable type is valid
func (d DeliverableType) IsValid() bool {
	switch d {
	case DeliverablePhoto,
		DeliverablePDF,
		DeliverableNumber,
		DeliverableText,
		DeliverableURL,
		DeliverableAttachment:
		return true
	default:
		return false
	}
}

// String returns the string representation of the deliverable type
func (d DeliverableType) String() string {
	return string(d)
}

// Owner identifies which side of the conversation owes the deliverable
type Owner string

const (
	OwnerClient Owner = "client"
	OwnerRM     Owner = "rm"
)

// Counterpart returns the other side of the conversation. A request sent by
// the RM is owed by the client and vice versa.
func (o Owner) Counterpart() Owner {
	if o == OwnerRM {
		return OwnerClient
	}
	return OwnerRM
}

// String returns the string representation of the owner
func (o Owner) String() string {
	return string(o)
}

// IsValid checks if the owner names a known conversation role
func (o Owner) IsValid() bool {
	return o == OwnerClient || o == OwnerRM
}

// ParseOwner parses a string into an Owner
func ParseOwner(s string) (Owner, error) {
	o := Owner(s)
	if !o.IsValid() {
		return "", goerr.New("unknown owner", goerr.V("owner", s))
	}
	return o, nil
}
