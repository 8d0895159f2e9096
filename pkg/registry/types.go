package registry

import (
	"net/url"
	"strings"
)

// UpdatedTimeLayout is the wire format for the Updated field, UTC with a
// literal Z suffix.
const UpdatedTimeLayout = "2006-01-02T15:04:05Z"

// DatasetRecord is one dataset's metadata. ID is caller-assigned and unique
// within the document store.
type DatasetRecord struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Updated     string   `json:"updated,omitempty"`
	Rows        *int64   `json:"rows,omitempty"`
	Columns     []string `json:"columns,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags"`
}

// Validate checks the fields required for persistence. ID, Name and URL are
// mandatory; URL must be an absolute http(s) URL.
func (r *DatasetRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if r.URL == "" {
		return &ValidationError{Field: "url", Reason: "must not be empty"}
	}
	u, err := url.Parse(r.URL)
	if err != nil {
		return &ValidationError{Field: "url", Reason: "malformed URL"}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "url", Reason: "must be an absolute http(s) URL"}
	}
	return nil
}

// Normalize fills persistence defaults: a nil Tags slice becomes empty so the
// document always carries a tags array. Updated is left alone; records
// without it sort last in QueryLatest.
func (r *DatasetRecord) Normalize() {
	if r.Tags == nil {
		r.Tags = []string{}
	}
}

// HasTag reports whether the record carries the given tag.
func (r *DatasetRecord) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
