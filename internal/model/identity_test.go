package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIdentityNormalizes(t *testing.T) {
	assert.Equal(t, Identity("user-1"), ParseIdentity("  user-1  "))
	assert.True(t, ParseIdentity("").IsZero())
	assert.True(t, ParseIdentity("   ").IsZero())
}

func TestIdentityEqual(t *testing.T) {
	assert.True(t, ParseIdentity("user-1").Equal(ParseIdentity(" user-1 ")))
	assert.False(t, ParseIdentity("user-1").Equal(ParseIdentity("user-2")))
}

func TestIdentityStrings(t *testing.T) {
	ids := []Identity{"a", "b"}
	assert.Equal(t, []string{"a", "b"}, IdentityStrings(ids))
	assert.Empty(t, IdentityStrings(nil))
}

func TestUserProfileSubset(t *testing.T) {
	u := User{
		UserID:    "user-1",
		FirstName: "Alice",
		LastName:  "Adams",
		Email:     "alice@example.com",
		Avatar:    "https://cdn.example.com/a.png",
		SocketID:  "conn-9",
	}

	p := u.Profile()
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, "Alice", p.FirstName)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.Equal(t, u.Avatar, p.Avatar)

	assert.Equal(t, Identity("user-1"), u.Identity())
}
