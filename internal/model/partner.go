package model

import "tlgsite/internal/pocketbase"

type Partner struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	Website     string `json:"website,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

func PartnerFromRecord(rec pocketbase.Record, fileURL FileURLFunc) Partner {
	p := Partner{
		ID:          rec.ID(),
		Name:        rec.String("name"),
		Logo:        rec.String("logo"),
		Website:     rec.String("website"),
		Description: rec.String("description"),
		Category:    rec.String("category"),
	}
	p.LogoURL = resolveFile(fileURL, CollectionPartners, p.ID, p.Logo)
	return p
}

// Contact is a newsletter subscription.
type Contact struct {
	Email string `json:"email" validate:"required,email"`
}
