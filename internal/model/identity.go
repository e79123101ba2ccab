package model

import "strings"

// Identity is the canonical form of a user id. Event payloads carry user ids
// both as raw strings and embedded inside user objects; every comparison in
// the hub goes through this type so the two representations always match.
type Identity string

// ParseIdentity normalizes a raw id into an Identity.
func ParseIdentity(raw string) Identity {
	return Identity(strings.TrimSpace(raw))
}

func (id Identity) String() string {
	return string(id)
}

func (id Identity) IsZero() bool {
	return id == ""
}

func (id Identity) Equal(other Identity) bool {
	return id == other
}

// IdentityStrings converts a slice of identities back to raw strings,
// typically for mongo $in filters.
func IdentityStrings(ids []Identity) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
