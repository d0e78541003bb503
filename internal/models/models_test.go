package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCatalog_TerminalEntries(t *testing.T) {
	for _, s := range StatusCatalog() {
		if s.IsTerminal {
			assert.Equal(t, TerminalCatalogLevel, s.Level, s.Name)
		} else {
			assert.True(t, s.Level >= 1 && s.Level <= 3, s.Name)
		}
	}
	assert.True(t, StatusFullyApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.Equal(t, "ACCOUNTANT_APPROVED", StatusAccountantApproved.String())
	assert.Equal(t, "UNKNOWN", StatusID(42).String())
}

func TestStatusCatalog_ReturnsCopy(t *testing.T) {
	catalog := StatusCatalog()
	catalog[0].Name = "MUTATED"

	s, ok := LookupStatus(StatusPending)
	assert.True(t, ok)
	assert.Equal(t, "PENDING", s.Name)
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleManager, RoleAdmin)
	assert.True(t, set.Has(RoleManager))
	assert.False(t, set.Has(RoleAccountant))
	assert.True(t, RoleEmployee.Valid())
	assert.False(t, Role("AUDITOR").Valid())
	assert.True(t, PlatformIOS.Valid())
	assert.False(t, Platform("blackberry").Valid())
}
