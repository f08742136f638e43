package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCatalogClone(t *testing.T) {
	orig := Catalog{
		RegimeSeriado: {{ID: "1", Name: "DIREITO", CreditPrice: decimal.RequireFromString("68.97")}},
	}

	cp := orig.Clone()
	cp[RegimeSeriado][0].Name = "CHANGED"

	assert.Equal(t, "DIREITO", orig[RegimeSeriado][0].Name)
	assert.NotNil(t, cp[RegimeAberto])
	assert.Empty(t, cp[RegimeAberto])
}

func TestUserClone(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	u := User{ID: "1", LastLogin: &ts}

	cp := u.Clone()
	*cp.LastLogin = cp.LastLogin.Add(time.Hour)

	assert.Equal(t, 10, u.LastLogin.Hour())
}

func TestUserIsAdmin(t *testing.T) {
	var nilUser *User
	assert.False(t, nilUser.IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin, Active: true}).IsAdmin())
	assert.False(t, (&User{Role: RoleAdmin, Active: false}).IsAdmin())
	assert.False(t, (&User{Role: RoleUser, Active: true}).IsAdmin())
}

func TestRegimeValid(t *testing.T) {
	assert.True(t, RegimeSeriado.Valid())
	assert.True(t, RegimeAberto.Valid())
	assert.False(t, Regime("noturno").Valid())
}
