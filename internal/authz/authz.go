// Package authz decides who may see and use the privileged controls of the site.
package authz

import (
	"strings"

	"tlgsite/internal/model"
)

// managerRoles is compared against the server asserted role field, exactly.
var managerRoles = []string{"Admin", "Dev"}

// legacyRanks is what the client editable rank_bis field used to be checked against,
// case-insensitively. It never grants anything; it is only compared for logging.
var legacyRanks = []string{"admin", "dev", "staff"}

// CanManage reports whether user may author content and manage tags and roles.
// Only the role field counts.
func CanManage(user *model.User) bool {
	if user == nil {
		return false
	}
	for _, r := range managerRoles {
		if user.Role == r {
			return true
		}
	}
	return false
}

// FallbackDiverges reports whether the legacy rank_bis rule would have answered differently
// from CanManage for user.
func FallbackDiverges(user *model.User) bool {
	return legacyAllows(user) != CanManage(user)
}

func legacyAllows(user *model.User) bool {
	if user == nil {
		return false
	}
	for _, rank := range user.RankBis {
		for _, allowed := range legacyRanks {
			if strings.EqualFold(strings.TrimSpace(rank), allowed) {
				return true
			}
		}
	}
	return false
}
