package domain

import "fmt"

// ReferenceKind enumerates the domain records a ledger row can point back to.
type ReferenceKind string

const (
	RefExpense  ReferenceKind = "EXPENSE"
	RefIncome   ReferenceKind = "INCOME"
	RefSale     ReferenceKind = "SALE"
	RefTransfer ReferenceKind = "TRANSFER"
	RefWallet   ReferenceKind = "WALLET"
	RefManual   ReferenceKind = "MANUAL"
)

var validReferenceKinds = map[ReferenceKind]struct{}{
	RefExpense:  {},
	RefIncome:   {},
	RefSale:     {},
	RefTransfer: {},
	RefWallet:   {},
	RefManual:   {},
}

// Reference ties a ledger row back to the domain record that produced it.
// Both fields are set together; a nil *Reference means "no origin".
type Reference struct {
	Kind ReferenceKind `json:"kind"`
	ID   string        `json:"id"`
}

// NewReference builds a validated reference.
func NewReference(kind ReferenceKind, id string) (*Reference, error) {
	if _, ok := validReferenceKinds[kind]; !ok {
		return nil, fmt.Errorf("unknown reference kind %q", kind)
	}
	if id == "" {
		return nil, fmt.Errorf("reference id must not be empty")
	}
	return &Reference{Kind: kind, ID: id}, nil
}

func (r *Reference) String() string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}
