package model

// Backend collection names.
const (
	CollectionUsers       = "users"
	CollectionNews        = "news"
	CollectionTags        = "tags"
	CollectionRoles       = "Rank"
	CollectionRecruitment = "recrutement"
	CollectionGames       = "Games"
	CollectionPartners    = "Partners"
	CollectionContacts    = "Contacts"
)

// FileURLFunc resolves an uploaded file name to its public URL.
type FileURLFunc func(collection, recordID, fileName string) string

func resolveFile(fileURL FileURLFunc, collection, recordID, name string) string {
	if name == "" {
		return ""
	}
	if isExternalURL(name) {
		return name
	}
	if fileURL == nil {
		return ""
	}
	return fileURL(collection, recordID, name)
}

func isExternalURL(s string) bool {
	return len(s) > 8 && (s[:7] == "http://" || s[:8] == "https://")
}
