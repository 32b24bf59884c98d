package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoan_Overdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	returned := now.Add(-time.Hour)

	tests := []struct {
		name string
		loan Loan
		want bool
	}{
		{name: "issued and not yet expired", loan: Loan{Status: LoanIssued, ExpiryDate: now.Add(time.Hour)}, want: false},
		{name: "issued and past expiry", loan: Loan{Status: LoanIssued, ExpiryDate: now.Add(-time.Minute)}, want: true},
		{name: "expiry equals now", loan: Loan{Status: LoanIssued, ExpiryDate: now}, want: false},
		{name: "returned after expiry", loan: Loan{Status: LoanReturned, ExpiryDate: now.Add(-48 * time.Hour), ReturnDate: &returned}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loan.Overdue(now))
		})
	}
}

func TestSeedRoles_FixedKeys(t *testing.T) {
	var keys []string
	for _, r := range SeedRoles() {
		keys = append(keys, r.ID)
	}
	assert.ElementsMatch(t, []string{RoleAdmin, RoleLibrarian, RoleUser}, keys)
}
