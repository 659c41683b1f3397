package role

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"Audiotheque/model"

	"gopkg.in/yaml.v3"
)

// Mapping is the email to role table, as found in the roles file.
type Mapping struct {
	Admins     []string `yaml:"admins"`
	Privileged []string `yaml:"privileged"`
}

// Resolver maps a signed-in email to a role. The environment mapping is
// fixed at start; the file mapping may be swapped at runtime.
type Resolver struct {
	mu   sync.RWMutex
	env  map[string]model.Role
	file map[string]model.Role
}

// NewResolver builds a resolver from the ADMIN_EMAILS / PRIVILEGED_EMAILS lists.
func NewResolver(admins, privileged []string) *Resolver {
	return &Resolver{
		env: buildTable(Mapping{Admins: admins, Privileged: privileged}),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func buildTable(m Mapping) map[string]model.Role {
	table := make(map[string]model.Role, len(m.Admins)+len(m.Privileged))
	for _, e := range m.Privileged {
		if key := normalizeEmail(e); key != "" {
			table[key] = model.RolePrivileged
		}
	}
	// admin wins when an address is listed twice
	for _, e := range m.Admins {
		if key := normalizeEmail(e); key != "" {
			table[key] = model.RoleAdmin
		}
	}
	return table
}

// Resolve returns the role for email. Unmapped addresses are standard users.
func (r *Resolver) Resolve(email string) model.Role {
	key := normalizeEmail(email)
	if key == "" {
		return model.RoleStandard
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	best := model.RoleStandard
	if role, ok := r.env[key]; ok {
		best = role
	}
	if role, ok := r.file[key]; ok && role > best {
		best = role
	}
	return best
}

// SetFileMapping replaces the file part of the mapping.
func (r *Resolver) SetFileMapping(m Mapping) {
	table := buildTable(m)
	r.mu.Lock()
	r.file = table
	r.mu.Unlock()
}

// Entries lists every configured address with its effective role.
func (r *Resolver) Entries() map[string]model.Role {
	r.mu.RLock()
	keys := make([]string, 0, len(r.env)+len(r.file))
	for k := range r.env {
		keys = append(keys, k)
	}
	for k := range r.file {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	out := make(map[string]model.Role, len(keys))
	for _, k := range keys {
		out[k] = r.Resolve(k)
	}
	return out
}

// LoadFile reads a YAML roles file.
func LoadFile(path string) (Mapping, error) {
	var m Mapping
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read roles file: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parse roles file %s: %w", path, err)
	}
	return m, nil
}

// Reload reads path and swaps the file mapping in. On error the previous
// mapping stays in place.
func (r *Resolver) Reload(path string) error {
	m, err := LoadFile(path)
	if err != nil {
		return err
	}
	r.SetFileMapping(m)
	return nil
}

// CanManageContent reports whether role may use the admin workflows.
func CanManageContent(role model.Role) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RolePrivileged, model.RoleStandard:
		return false
	default:
		return false
	}
}
