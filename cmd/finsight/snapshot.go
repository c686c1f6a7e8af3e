package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/calluna/finsight/internal/common"
	"github.com/calluna/finsight/internal/model"
)

// The snapshot file format belongs to this command, not the core: the
// pipeline takes already-loaded in-memory collections and defines no
// wire format of its own.

type snapshotFile struct {
	UserID       string            `json:"user_id"`
	AsOf         time.Time         `json:"as_of"`
	Accounts     []accountJSON     `json:"accounts"`
	Transactions []transactionJSON `json:"transactions"`
	Liabilities  []liabilityJSON   `json:"liabilities"`
	Profile      profileJSON       `json:"profile"`
}

type accountJSON struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Subtype     string          `json:"subtype"`
	Currency    string          `json:"currency"`
	Balance     decimal.Decimal `json:"balance"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

type transactionJSON struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"account_id"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	MerchantName string          `json:"merchant_name"`
	Category     string          `json:"category"`
	Pending      bool            `json:"pending"`
}

type liabilityJSON struct {
	AccountID      string          `json:"account_id"`
	APR            float64         `json:"apr"`
	MinimumPayment decimal.Decimal `json:"minimum_payment"`
	IsOverdue      bool            `json:"is_overdue"`
	NextDueDate    time.Time       `json:"next_due_date"`
}

type profileJSON struct {
	Age         *int   `json:"age"`
	IncomeLevel string `json:"income_level"`
}

// loadSnapshot reads one user's snapshot fixture from disk.
func loadSnapshot(path string) (model.Snapshot, model.UserProfile, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's command line
	if err != nil {
		return model.Snapshot{}, model.UserProfile{}, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return model.Snapshot{}, model.UserProfile{}, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}

	snap := model.Snapshot{
		UserID: file.UserID,
		AsOf:   file.AsOf,
	}
	for _, a := range file.Accounts {
		snap.Accounts = append(snap.Accounts, model.Account{
			ID:          a.ID,
			Name:        a.Name,
			Type:        model.AccountType(a.Type),
			Subtype:     a.Subtype,
			Currency:    a.Currency,
			Balance:     a.Balance,
			CreditLimit: a.CreditLimit,
		})
	}
	// Overlapping provider exports repeat settled transactions, often
	// under fresh IDs. Identical rows collapse to one by content hash.
	seen := make(map[string]bool)
	for _, t := range file.Transactions {
		txn := model.Transaction{
			ID:           t.ID,
			AccountID:    t.AccountID,
			Date:         t.Date,
			Amount:       t.Amount,
			MerchantName: t.MerchantName,
			Category:     t.Category,
			Pending:      t.Pending,
		}
		hash := txn.GenerateHash()
		if seen[hash] {
			common.LogInfo("Skipping duplicate transaction", common.Fields{
				"snapshot": path,
				"merchant": txn.MerchantName,
				"date":     txn.Date.Format("2006-01-02"),
			})
			continue
		}
		seen[hash] = true
		snap.Transactions = append(snap.Transactions, txn)
	}
	for _, l := range file.Liabilities {
		snap.Liabilities = append(snap.Liabilities, model.Liability{
			AccountID:      l.AccountID,
			APR:            l.APR,
			MinimumPayment: l.MinimumPayment,
			IsOverdue:      l.IsOverdue,
			NextDueDate:    l.NextDueDate,
		})
	}

	profile := model.UserProfile{
		UserID:      file.UserID,
		Age:         file.Profile.Age,
		IncomeLevel: model.IncomeLevel(file.Profile.IncomeLevel),
	}
	return snap, profile, nil
}
