package role

import "Audiotheque/model"

// Visible decides whether a track with the given visibility set may be
// listed or played by role. An empty set is visible to everyone and Admin
// is implicitly part of every set.
func Visible(role model.Role, visibleFor model.RoleList) bool {
	if len(visibleFor) == 0 {
		return true
	}
	switch role {
	case model.RoleAdmin:
		return true
	case model.RolePrivileged, model.RoleStandard:
		return visibleFor.Contains(role)
	default:
		return false
	}
}

// FilterVisible keeps the tracks role may see, preserving input order.
func FilterVisible(role model.Role, tracks []model.Audio) []model.Audio {
	out := make([]model.Audio, 0, len(tracks))
	for _, t := range tracks {
		if Visible(role, t.VisibleFor) {
			out = append(out, t)
		}
	}
	return out
}

// DefaultVisibility is the set given to a fresh upload.
func DefaultVisibility() model.RoleList {
	return model.RoleList{model.RoleAdmin, model.RolePrivileged, model.RoleStandard}
}

// TogglePermission adds role to set if absent and removes it if present.
// An empty set stands for every role. Admin is never removed. The input
// slice is not modified.
func TogglePermission(set model.RoleList, role model.Role) model.RoleList {
	if len(set) == 0 {
		set = DefaultVisibility()
	}
	if set.Contains(role) {
		if role == model.RoleAdmin {
			return NormalizeVisibility(set)
		}
		out := make(model.RoleList, 0, len(set))
		for _, r := range set {
			if r != role {
				out = append(out, r)
			}
		}
		return NormalizeVisibility(out)
	}
	out := make(model.RoleList, 0, len(set)+1)
	out = append(out, set...)
	return NormalizeVisibility(append(out, role))
}

// NormalizeVisibility returns set with Admin present, duplicates and
// unknown values dropped, in display order.
func NormalizeVisibility(set model.RoleList) model.RoleList {
	out := model.RoleList{model.RoleAdmin}
	for _, r := range model.AllRoles {
		if r != model.RoleAdmin && set.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}
