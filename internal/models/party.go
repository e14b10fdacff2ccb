package models

// PartyKind distinguishes the owners of a wallet.
type PartyKind string

const (
	PartyUser    PartyKind = "user"
	PartyCompany PartyKind = "company"
)

func (k PartyKind) Valid() bool {
	return k == PartyUser || k == PartyCompany
}

// Party is anything that can hold a ledger balance. The balance itself
// is never stored, it is always derived from the party's entries.
type Party struct {
	ID   string    `json:"id"`
	Kind PartyKind `json:"kind"`
}

func UserParty(id string) Party {
	return Party{ID: id, Kind: PartyUser}
}

func CompanyParty(id string) Party {
	return Party{ID: id, Kind: PartyCompany}
}
