package model

import (
	"fmt"
	"time"
)

// Snapshot is a read-only view of a user's raw financial records as
// supplied by the data-loading collaborator. The pipeline never mutates it.
type Snapshot struct {
	AsOf         time.Time
	UserID       string
	Accounts     []Account
	Transactions []Transaction
	Liabilities  []Liability
}

// Validate checks the snapshot's internal consistency: every transaction
// and liability must reference a known account.
func (s *Snapshot) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("snapshot has no user id")
	}

	known := make(map[string]bool, len(s.Accounts))
	for _, a := range s.Accounts {
		known[a.ID] = true
	}

	for _, t := range s.Transactions {
		if !known[t.AccountID] {
			return fmt.Errorf("transaction %s references unknown account %s", t.ID, t.AccountID)
		}
	}
	for _, l := range s.Liabilities {
		if !known[l.AccountID] {
			return fmt.Errorf("liability references unknown account %s", l.AccountID)
		}
	}

	return nil
}

// AccountsByType returns the snapshot's accounts matching the given type.
func (s *Snapshot) AccountsByType(at AccountType) []Account {
	var out []Account
	for _, a := range s.Accounts {
		if a.Type == at {
			out = append(out, a)
		}
	}
	return out
}
