package view

import (
	"tlgsite/internal/model"
	"tlgsite/internal/newsform"
	"tlgsite/internal/pocketbase"
)

type HomeData struct {
	News      []model.NewsItem
	UserCount int
	Partners  []model.Partner
}

type GamesData struct {
	Games []model.Game
}

type NewsListData struct {
	Items []model.NewsItem
	Tags  []string
	Tag   string
	Sort  string
}

type NewsItemData struct {
	Item *model.NewsItem
}

type NewsFormData struct {
	Form *newsform.Form
	Tags []model.Tag
}

type RecruitmentData struct {
	Roles       []model.Role
	Advertised  []model.Recruitment
	Open        map[string]bool
	Selected    string
	Description string
	Error       string
}

type PartnersData struct {
	Partners []model.Partner
}

type ContactData struct {
	Email      string
	Error      string
	Subscribed bool
}

type LoginData struct {
	Next            string
	Email           string
	Error           string
	PasswordEnabled bool
	Providers       []pocketbase.AuthProvider
	StaffVerified   bool
}

type TagsData struct {
	Tags  []model.Tag
	Error string
}

type ErrorData struct {
	Status  int
	Message string
}
