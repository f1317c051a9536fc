package inspection

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solaius/asset-registry/pkg/authn"
)

// RolePolicyFile is the top-level structure of the role policy YAML file.
type RolePolicyFile struct {
	// Aliases maps an approval role to extra global roles that may sign
	// it, e.g. lead: [supervisor]. The admin role and the exact role name
	// are always accepted and need not be listed.
	Aliases map[Role][]string `yaml:"aliases" json:"aliases"`
}

// RolePolicy decides who may sign an approval slot.
type RolePolicy struct {
	aliases map[Role][]string
}

// NewRolePolicy creates a policy with the given role aliases.
func NewRolePolicy(aliases map[Role][]string) *RolePolicy {
	return &RolePolicy{aliases: aliases}
}

// DefaultRolePolicy accepts only admin, the exact role name, and the slot
// assignee.
func DefaultRolePolicy() *RolePolicy {
	return NewRolePolicy(nil)
}

// LoadRolePolicy loads role aliases from a YAML file.
// Returns the default policy if the file does not exist.
func LoadRolePolicy(path string) (*RolePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRolePolicy(), nil
		}
		return nil, fmt.Errorf("read role policy: %w", err)
	}

	var pf RolePolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse role policy: %w", err)
	}

	return NewRolePolicy(pf.Aliases), nil
}

// Authorized reports whether the actor may sign the given slot: the slot
// assignee always may; otherwise the actor's global role must be admin,
// the role itself, or a configured alias. Role comparison is
// case-insensitive.
func (p *RolePolicy) Authorized(role Role, actor authn.Actor, assignedUserID string) bool {
	if actor.UserID != "" && actor.UserID == assignedUserID {
		return true
	}
	if actor.Role == "" {
		return false
	}
	if strings.EqualFold(actor.Role, "admin") || strings.EqualFold(actor.Role, string(role)) {
		return true
	}
	for _, alias := range p.aliases[role] {
		if strings.EqualFold(actor.Role, alias) {
			return true
		}
	}
	return false
}
