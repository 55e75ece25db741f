package ledger

import "fmt"

// AccountKind classifies an account.
type AccountKind int

const (
	AccountKindUnknown AccountKind = iota
	AccountKindBank
	AccountKindCredit
)

// String returns the string representation of the account kind
func (k AccountKind) String() string {
	switch k {
	case AccountKindBank:
		return "bank"
	case AccountKindCredit:
		return "credit"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k AccountKind) MarshalText() ([]byte, error) {
	if k == AccountKindUnknown {
		return nil, fmt.Errorf("cannot marshal unknown account kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *AccountKind) UnmarshalText(text []byte) error {
	kind, ok := ParseAccountKind(string(text))
	if !ok {
		return &InvalidAccountKindError{Kind: string(text)}
	}
	*k = kind
	return nil
}

// ParseAccountKind parses "bank" or "credit".
func ParseAccountKind(s string) (AccountKind, bool) {
	switch s {
	case "bank":
		return AccountKindBank, true
	case "credit":
		return AccountKindCredit, true
	default:
		return AccountKindUnknown, false
	}
}

// Account is a bank or credit account money moves through.
type Account struct {
	Name string
	Kind AccountKind
}
