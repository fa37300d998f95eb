package model

import (
	"strings"
	"time"

	"tlgsite/internal/pocketbase"
)

// newUserWindow is how close created and updated must be for a record to count as a first login.
const newUserWindow = 10 * time.Second

// User is a record of the users auth collection.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Avatar    string    `json:"avatar,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Role      string    `json:"role,omitempty"`     // server asserted
	RankBis   []string  `json:"rank_bis,omitempty"` // client editable, never trusted
	Staffword string    `json:"-"`
	Verified  bool      `json:"verified"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

// UserFromRecord normalizes a users record. It returns nil for an empty record.
func UserFromRecord(rec pocketbase.Record, fileURL FileURLFunc) *User {
	if len(rec) == 0 || rec.ID() == "" {
		return nil
	}
	u := &User{
		ID:        rec.ID(),
		Name:      rec.String("name"),
		Email:     rec.String("email"),
		Avatar:    rec.String("avatar"),
		Role:      rec.String("role"),
		RankBis:   rec.Strings("rank_bis"),
		Staffword: rec.String("staffword"),
		Verified:  rec.Bool("verified"),
		Created:   rec.Time("created"),
		Updated:   rec.Time("updated"),
	}
	u.AvatarURL = resolveFile(fileURL, CollectionUsers, u.ID, u.Avatar)
	return u
}

// IsNewUser reports whether the record was created by the login that returned it.
func (u *User) IsNewUser() bool {
	if u == nil || u.Created.IsZero() || u.Updated.IsZero() {
		return false
	}
	d := u.Updated.Sub(u.Created)
	if d < 0 {
		d = -d
	}
	return d < newUserWindow
}

// DisplayName falls back to the local part of the email when no name is set.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	local, _, _ := strings.Cut(u.Email, "@")
	return local
}
