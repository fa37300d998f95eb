package pocketbase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"
)

// Payload is a request body for create and update calls.
type Payload interface {
	// Encode returns the body and its content type.
	Encode() (io.Reader, string, error)
}

// JSONPayload is a plain key/value body sent as application/json.
type JSONPayload map[string]any

func (p JSONPayload) Encode() (io.Reader, string, error) {
	raw, err := json.Marshal(map[string]any(p))
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(raw), "application/json", nil
}

// File is one uploaded file of a multipart payload.
type File struct {
	Field  string
	Name   string
	Reader io.Reader
}

// MultipartPayload is sent as multipart/form-data. The file endpoints only accept this encoding.
// Repeated values of a field (e.g. relation ids) are sent as repeated parts.
type MultipartPayload struct {
	Fields url.Values
	Files  []File
}

func (p MultipartPayload) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range p.Fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", k, err)
			}
		}
	}

	for _, f := range p.Files {
		if f.Reader == nil {
			continue
		}
		part, err := w.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create file part %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return nil, "", fmt.Errorf("copy file %s: %w", f.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
