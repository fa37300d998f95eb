package model

import (
	"sort"
	"time"

	"tlgsite/internal/pocketbase"
)

// NewsItem is a record of the news collection with its tags normalized.
type NewsItem struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Headlines        string    `json:"headlines"`
	Content          string    `json:"content"`
	Tags             []Tag     `json:"tags"`
	TagIDs           []string  `json:"tag_ids"`
	Published        bool      `json:"do_publish"`
	PublishDate      time.Time `json:"parution_date"`
	EventDate        time.Time `json:"event_date"`
	Author           string    `json:"author,omitempty"`
	Image            string    `json:"image,omitempty"`
	ImageURL         string    `json:"image_src,omitempty"`
	ExternalImageURL string    `json:"image_url,omitempty"`
	VideoURL         string    `json:"video_url,omitempty"`
	Created          time.Time `json:"created"`
	Updated          time.Time `json:"updated"`
}

// NewsFromRecord normalizes a news record. Expanded tags win; otherwise the raw ids are kept as tags
// without names.
func NewsFromRecord(rec pocketbase.Record, fileURL FileURLFunc) NewsItem {
	n := NewsItem{
		ID:               rec.ID(),
		Title:            rec.String("title"),
		Headlines:        rec.String("headlines"),
		Content:          rec.String("content"),
		TagIDs:           rec.Strings("tags"),
		Published:        rec.Bool("do_publish"),
		PublishDate:      rec.Time("Parution_Date"),
		EventDate:        rec.Time("event_date"),
		Author:           rec.String("author"),
		Image:            rec.String("image"),
		ExternalImageURL: rec.String("image_url"),
		VideoURL:         rec.String("video_url"),
		Created:          rec.Time("created"),
		Updated:          rec.Time("updated"),
	}
	n.ImageURL = resolveFile(fileURL, CollectionNews, n.ID, n.Image)

	if expanded := rec.Expand("tags"); len(expanded) > 0 {
		n.Tags = make([]Tag, 0, len(expanded))
		for _, t := range expanded {
			n.Tags = append(n.Tags, TagFromRecord(t, fileURL))
		}
	} else {
		n.Tags = make([]Tag, 0, len(n.TagIDs))
		for _, id := range n.TagIDs {
			n.Tags = append(n.Tags, Tag{ID: id})
		}
	}
	return n
}

// HasMedia reports whether at least one of upload, external image or video is present.
func (n NewsItem) HasMedia() bool {
	return n.Image != "" || n.ExternalImageURL != "" || n.VideoURL != ""
}

// TagNames returns the display labels of the item's tags.
func (n NewsItem) TagNames() []string {
	names := make([]string, 0, len(n.Tags))
	for _, t := range n.Tags {
		names = append(names, t.Label())
	}
	return names
}

// HasTag matches a tag by label or id.
func (n NewsItem) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t.ID == tag || t.Label() == tag {
			return true
		}
	}
	return false
}

// Cover is the image shown for the item: the upload first, then the external image.
func (n NewsItem) Cover() string {
	if n.ImageURL != "" {
		return n.ImageURL
	}
	return n.ExternalImageURL
}

// AllTags returns the sorted, de-duplicated tag labels used by items.
func AllTags(items []NewsItem) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, item := range items {
		for _, name := range item.TagNames() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
