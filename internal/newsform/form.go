// Package newsform holds the news authoring form: its fields, its open/submit lifecycle and
// the request body it produces.
package newsform

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "tlgsite/internal/errors"
	"tlgsite/internal/model"
	"tlgsite/internal/pocketbase"
)

// State is where the form is in its lifecycle.
type State int

const (
	Closed State = iota
	OpenCreate
	OpenEdit
	Submitting
	OpenWithError
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenCreate:
		return "open-create"
	case OpenEdit:
		return "open-edit"
	case Submitting:
		return "submitting"
	case OpenWithError:
		return "open-with-error"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// ErrInvalidTransition is returned when an operation is not allowed in the current state.
var ErrInvalidTransition = errors.New("invalid form transition")

// Messages shown above the form.
const (
	MessageTitleRequired   = "Le titre est requis."
	MessageContentRequired = "Le contenu est requis."
	MessageMediaRequired   = "Ajoutez une image, une URL d'image ou une vidéo."
	MessageSubmitFailed    = "Erreur lors de l'enregistrement de la news"
)

// dateInputLayouts are the formats browsers send for date and datetime-local inputs.
var dateInputLayouts = []string{"2006-01-02T15:04", "2006-01-02", pocketbase.DateLayout, time.RFC3339}

// Submitter performs the backend write for a submitted form.
type Submitter interface {
	CreateNews(ctx context.Context, body pocketbase.Payload) error
	UpdateNews(ctx context.Context, id string, body pocketbase.Payload) error
}

// Form is the news authoring form. Field tags match the HTML form; File and ExistingImage are
// set by the caller.
type Form struct {
	Title            string   `form:"title"`
	Headlines        string   `form:"headlines"`
	Content          string   `form:"content"`
	TagIDs           []string `form:"tags"`
	Published        bool     `form:"do_publish"`
	PublishDate      string   `form:"parution_date"`
	EventDate        string   `form:"event_date"`
	Author           string   `form:"author"`
	ExternalImageURL string   `form:"image_url"`
	VideoURL         string   `form:"video_url"`

	File          *pocketbase.File `form:"-"`
	ExistingImage string           `form:"-"`

	Error string `form:"-"`

	state       State
	editID      string
	fieldErrors map[string]string
}

func (f *Form) State() State { return f.state }

// EditingID is the id of the item being edited, empty when creating.
func (f *Form) EditingID() string { return f.editID }

// ErrorFor returns the message of the last failed submit for one field, keyed by the backend
// field name ("title", "Parution_Date", ...) or "media".
func (f *Form) ErrorFor(field string) string { return f.fieldErrors[field] }

// Open starts a blank create form.
func (f *Form) Open() error {
	if f.state != Closed {
		return fmt.Errorf("open from %s: %w", f.state, ErrInvalidTransition)
	}
	f.reset()
	f.state = OpenCreate
	return nil
}

// Edit opens the form prefilled from item.
func (f *Form) Edit(item model.NewsItem) error {
	if f.state != Closed {
		return fmt.Errorf("edit from %s: %w", f.state, ErrInvalidTransition)
	}
	f.reset()
	f.Title = item.Title
	f.Headlines = item.Headlines
	f.Content = item.Content
	f.TagIDs = append([]string(nil), item.TagIDs...)
	f.Published = item.Published
	f.PublishDate = dateInput(item.PublishDate)
	f.EventDate = dateInput(item.EventDate)
	f.Author = item.Author
	f.ExternalImageURL = item.ExternalImageURL
	f.VideoURL = item.VideoURL
	f.ExistingImage = item.Image
	f.editID = item.ID
	f.state = OpenEdit
	return nil
}

// Close discards the form. It is not allowed while a submission is in flight.
func (f *Form) Close() error {
	if f.state == Submitting {
		return fmt.Errorf("close from %s: %w", f.state, ErrInvalidTransition)
	}
	f.reset()
	f.state = Closed
	return nil
}

func (f *Form) reset() {
	*f = Form{state: f.state}
}

// HasMedia reports whether an upload, the existing image, an image URL or a video URL is set.
func (f *Form) HasMedia() bool {
	return f.File != nil ||
		strings.TrimSpace(f.ExistingImage) != "" ||
		strings.TrimSpace(f.ExternalImageURL) != "" ||
		strings.TrimSpace(f.VideoURL) != ""
}

// Validate checks the form without touching the network.
func (f *Form) Validate() error {
	switch {
	case strings.TrimSpace(f.Title) == "":
		return &FieldError{Field: "title", Message: MessageTitleRequired, Err: apperrors.ErrValidation}
	case strings.TrimSpace(f.Content) == "":
		return &FieldError{Field: "content", Message: MessageContentRequired, Err: apperrors.ErrValidation}
	case !f.HasMedia():
		return &FieldError{Field: "media", Message: MessageMediaRequired, Err: apperrors.ErrMediaRequired}
	}
	return nil
}

// Payload builds the request body: multipart when a file is attached, JSON otherwise.
func (f *Form) Payload() pocketbase.Payload {
	tags := make([]string, 0, len(f.TagIDs))
	for _, id := range f.TagIDs {
		if id = strings.TrimSpace(id); id != "" {
			tags = append(tags, id)
		}
	}
	fields := map[string]string{
		"title":         strings.TrimSpace(f.Title),
		"headlines":     strings.TrimSpace(f.Headlines),
		"content":       f.Content,
		"author":        strings.TrimSpace(f.Author),
		"image_url":     strings.TrimSpace(f.ExternalImageURL),
		"video_url":     strings.TrimSpace(f.VideoURL),
		"Parution_Date": backendDate(f.PublishDate),
		"event_date":    backendDate(f.EventDate),
	}

	if f.File == nil {
		body := pocketbase.JSONPayload{"tags": tags, "do_publish": f.Published}
		for k, v := range fields {
			body[k] = v
		}
		return body
	}

	values := url.Values{"do_publish": {strconv.FormatBool(f.Published)}}
	for k, v := range fields {
		values.Set(k, v)
	}
	// An empty tags part clears the relation, so it is always sent.
	if len(tags) == 0 {
		values["tags"] = []string{""}
	} else {
		values["tags"] = tags
	}
	file := *f.File
	if file.Field == "" {
		file.Field = "image"
	}
	return pocketbase.MultipartPayload{Fields: values, Files: []pocketbase.File{file}}
}

// Submit validates and sends the form. Validation failures never reach submitter. On success
// the form is reset and closed and refresh, if set, is called; on failure it stays open with
// Error set to the message to display.
func (f *Form) Submit(ctx context.Context, submitter Submitter, refresh func()) error {
	switch f.state {
	case OpenCreate, OpenEdit, OpenWithError:
	default:
		return fmt.Errorf("submit from %s: %w", f.state, ErrInvalidTransition)
	}

	if err := f.Validate(); err != nil {
		f.fail(err)
		return err
	}

	f.state = Submitting
	f.Error = ""
	f.fieldErrors = nil
	body := f.Payload()

	var err error
	if f.editID != "" {
		err = submitter.UpdateNews(ctx, f.editID, body)
	} else {
		err = submitter.CreateNews(ctx, body)
	}
	if err != nil {
		f.fail(err)
		return err
	}

	f.reset()
	f.state = Closed
	if refresh != nil {
		refresh()
	}
	return nil
}

func (f *Form) fail(err error) {
	f.state = OpenWithError
	f.fieldErrors = nil
	var (
		fe *FieldError
		ce *pocketbase.ClientError
	)
	switch {
	case errors.As(err, &fe):
		f.Error = fe.Message
		f.fieldErrors = map[string]string{fe.Field: fe.Message}
	case errors.Is(err, apperrors.ErrForbidden):
		f.Error = "Action réservée au staff."
	default:
		f.Error = pocketbase.Message(err)
		if f.Error == "" {
			f.Error = MessageSubmitFailed
		}
		if errors.As(err, &ce) {
			if fields := ce.FieldErrors(); len(fields) > 0 {
				f.fieldErrors = fields
			}
		}
	}
}

// FieldError is a validation failure on one field.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }
func (e *FieldError) Unwrap() error { return e.Err }

func dateInput(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04")
}

// backendDate converts a browser date input to the backend layout. Unparseable input is sent
// empty, which clears the field.
func backendDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(pocketbase.DateLayout)
		}
	}
	return ""
}
