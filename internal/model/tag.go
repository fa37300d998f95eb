package model

import "tlgsite/internal/pocketbase"

type Tag struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Picture    string `json:"picture,omitempty"`
	PictureURL string `json:"picture_url,omitempty"`
}

func TagFromRecord(rec pocketbase.Record, fileURL FileURLFunc) Tag {
	t := Tag{
		ID:      rec.ID(),
		Name:    rec.String("name"),
		Picture: rec.String("picture"),
	}
	t.PictureURL = resolveFile(fileURL, CollectionTags, t.ID, t.Picture)
	return t
}

// Label is the display name, or the id when the tag was not expanded.
func (t Tag) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}
