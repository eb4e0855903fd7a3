package models

import (
	"sort"
	"strings"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleAuthor = "author"
)

// RoleSet holds every role assigned to an actor.
type RoleSet map[string]struct{}

// NewRoleSet normalizes role names (trimmed, lowercase) and drops blanks
func NewRoleSet(roles ...string) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	return set
}

// ParseRoles splits a comma separated role header
func ParseRoles(header string) RoleSet {
	return NewRoleSet(strings.Split(header, ",")...)
}

func (s RoleSet) Has(role string) bool {
	_, ok := s[role]
	return ok
}

// Slice returns the roles sorted by name
func (s RoleSet) Slice() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Actor is the authenticated caller of a lifecycle operation. Identity is
// supplied by the auth layer and trusted as given.
type Actor struct {
	ID    int64
	Roles RoleSet
}

// NewActor builds an actor holding the given roles
func NewActor(id int64, roles ...string) Actor {
	return Actor{ID: id, Roles: NewRoleSet(roles...)}
}

func (a Actor) IsAdmin() bool {
	return a.Roles.Has(RoleAdmin)
}

// Owns reports whether the actor authored the resource
func (a Actor) Owns(authorID int64) bool {
	return a.ID != 0 && a.ID == authorID
}
