// Package message defines the UFTP payload messages, participants and envelopes the compliance engine validates.
package message

import "fmt"

// Role is the market role of a UFTP participant.
type Role string

const (
	RoleAGR Role = "AGR"
	RoleDSO Role = "DSO"
	RoleCRO Role = "CRO"
)

// ParseRole parses a role name; the match is exact.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAGR, RoleDSO, RoleCRO:
		return Role(s), nil
	}
	return "", fmt.Errorf("message:participant - unknown role %q", s)
}

// Participant is the identity of an actor exchanging UFTP messages.
type Participant struct {
	Domain string `json:"domain"`
	Role   Role   `json:"role"`
}

func (p Participant) String() string {
	return string(p.Role) + "@" + p.Domain
}
