// Package authroles maps directory distinguished names to application roles.
package authroles

import (
	"fmt"
	"strings"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/ports"
)

// DNRule assigns Role when an entry's DN contains Contains.
type DNRule struct {
	Contains string
	Role     domainauth.Role
}

// DNRules is an ordered rule list. Every rule is checked and each match
// overwrites the previous one, so the last matching rule wins.
type DNRules []DNRule

var _ ports.RoleMapper = DNRules(nil)

// DefaultDNRules mirrors the campus directory layout.
func DefaultDNRules() DNRules {
	return DNRules{
		{Contains: "OU=Students", Role: domainauth.RoleStudent},
		{Contains: "OU=Faculty", Role: domainauth.RoleStaff},
		{Contains: "OU=Staff", Role: domainauth.RoleStaff},
	}
}

// Map returns the role of the last rule whose substring occurs in dn.
// Matching is case-sensitive.
func (r DNRules) Map(dn string) (domainauth.Role, bool) {
	var (
		role    domainauth.Role
		matched bool
	)
	for _, rule := range r {
		if rule.Contains != "" && strings.Contains(dn, rule.Contains) {
			role = rule.Role
			matched = true
		}
	}
	return role, matched
}

// UnmarshalText parses "substring=role" pairs separated by ";", e.g.
// "OU=Students=student;OU=Staff=staff". The role is taken after the last "=".
func (r *DNRules) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*r = nil
		return nil
	}
	var rules DNRules
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx := strings.LastIndex(part, "=")
		if idx <= 0 || idx == len(part)-1 {
			return fmt.Errorf("invalid DN rule %q: want substring=role", part)
		}
		role, err := domainauth.ParseRole(part[idx+1:])
		if err != nil {
			return fmt.Errorf("invalid DN rule %q: %w", part, err)
		}
		rules = append(rules, DNRule{Contains: strings.TrimSpace(part[:idx]), Role: role})
	}
	*r = rules
	return nil
}

// String renders the rules in the form accepted by UnmarshalText.
func (r DNRules) String() string {
	parts := make([]string, 0, len(r))
	for _, rule := range r {
		parts = append(parts, rule.Contains+"="+string(rule.Role))
	}
	return strings.Join(parts, ";")
}
