package model

import (
	"strings"

	"tlgsite/internal/pocketbase"
)

// Role is a record of the Rank collection.
type Role struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	List        string `json:"list"`
}

func RoleFromRecord(rec pocketbase.Record) Role {
	return Role{
		ID:          rec.ID(),
		Name:        rec.String("name"),
		Description: rec.String("description"),
		List:        rec.String("list"),
	}
}

// ListItems splits the free-text list into its non-empty lines.
func (r Role) ListItems() []string {
	out := []string{}
	for _, line := range strings.Split(r.List, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Recruitment marks a role as advertised. Its id is always the role id, so presence of the
// record is the advertisement itself.
type Recruitment struct {
	ID     string `json:"id"`
	RoleID string `json:"name"`
	Role   *Role  `json:"role,omitempty"`
}

func RecruitmentFromRecord(rec pocketbase.Record) Recruitment {
	r := Recruitment{
		ID:     rec.ID(),
		RoleID: rec.String("name"),
	}
	if r.RoleID == "" {
		r.RoleID = r.ID
	}
	if expanded := rec.Expand("name"); len(expanded) > 0 {
		role := RoleFromRecord(expanded[0])
		r.Role = &role
	}
	return r
}
