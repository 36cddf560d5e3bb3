package enums

// AccountType describes the acting merchant account. Company accounts must
// attribute every sale to a seller for commission reporting.
type AccountType string

const (
	AccountTypeIndividual AccountType = "individual"
	AccountTypeCompany    AccountType = "company"
)

func (a AccountType) String() string {
	return string(a)
}

func (a AccountType) IsValid() bool {
	return a == AccountTypeIndividual || a == AccountTypeCompany
}
