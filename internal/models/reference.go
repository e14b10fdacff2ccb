package models

// ReferenceKind names the type of object a ledger entry was caused by.
type ReferenceKind string

const (
	RefInvestment ReferenceKind = "investment"
	RefCampaign   ReferenceKind = "campaign"
	RefCompany    ReferenceKind = "company"
	RefSettlement ReferenceKind = "settlement"
	RefUser       ReferenceKind = "user"
)

func (k ReferenceKind) Valid() bool {
	switch k {
	case RefInvestment, RefCampaign, RefCompany, RefSettlement, RefUser:
		return true
	}
	return false
}

// Reference points at the object that caused a ledger entry.
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   string        `json:"id"`
}

func (r Reference) Valid() bool {
	return r.Kind.Valid() && r.ID != ""
}
