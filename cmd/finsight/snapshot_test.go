package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calluna/finsight/internal/model"
)

func writeSnapshotFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadSnapshot(t *testing.T) {
	path := writeSnapshotFile(t, `{
		"user_id": "user-1",
		"as_of": "2026-06-01T00:00:00Z",
		"accounts": [
			{"id": "chk", "name": "Checking", "type": "checking", "currency": "USD", "balance": "1200.50"}
		],
		"transactions": [
			{"id": "t1", "account_id": "chk", "date": "2026-05-10T00:00:00Z", "amount": "-15.99", "merchant_name": "Streamly"}
		],
		"liabilities": [
			{"account_id": "chk", "apr": 21.5, "minimum_payment": "35.00"}
		],
		"profile": {"age": 34, "income_level": "medium"}
	}`)

	snap, profile, err := loadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, "user-1", snap.UserID)
	require.Len(t, snap.Accounts, 1)
	assert.Equal(t, model.AccountTypeChecking, snap.Accounts[0].Type)
	assert.True(t, snap.Accounts[0].Balance.Equal(decimal.RequireFromString("1200.50")))

	require.Len(t, snap.Transactions, 1)
	assert.Equal(t, "chk", snap.Transactions[0].AccountID)
	assert.Equal(t, "Streamly", snap.Transactions[0].MerchantName)

	require.Len(t, snap.Liabilities, 1)
	assert.Equal(t, 21.5, snap.Liabilities[0].APR)

	require.NotNil(t, profile.Age)
	assert.Equal(t, 34, *profile.Age)
	assert.Equal(t, model.IncomeMedium, profile.IncomeLevel)
}

func TestLoadSnapshot_CollapsesDuplicateTransactions(t *testing.T) {
	// Same settled transaction exported twice under different provider
	// IDs; the third row is a genuinely distinct charge.
	path := writeSnapshotFile(t, `{
		"user_id": "user-1",
		"as_of": "2026-06-01T00:00:00Z",
		"accounts": [{"id": "chk", "type": "checking", "balance": "500"}],
		"transactions": [
			{"id": "t1", "account_id": "chk", "date": "2026-05-10T00:00:00Z", "amount": "-15.99", "merchant_name": "Streamly"},
			{"id": "t1-reexport", "account_id": "chk", "date": "2026-05-10T00:00:00Z", "amount": "-15.99", "merchant_name": "Streamly"},
			{"id": "t2", "account_id": "chk", "date": "2026-05-11T00:00:00Z", "amount": "-15.99", "merchant_name": "Streamly"}
		]
	}`)

	snap, _, err := loadSnapshot(path)
	require.NoError(t, err)

	require.Len(t, snap.Transactions, 2)
	assert.Equal(t, "t1", snap.Transactions[0].ID)
	assert.Equal(t, "t2", snap.Transactions[1].ID)
}

func TestLoadSnapshot_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := loadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "failed to read snapshot")
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeSnapshotFile(t, `{"user_id": `)
		_, _, err := loadSnapshot(path)
		assert.ErrorContains(t, err, "failed to parse snapshot")
	})
}
