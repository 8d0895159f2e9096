package registry

import (
	"encoding/json"
	"testing"
)

func TestDatasetRecordValidate(t *testing.T) {
	valid := func() DatasetRecord {
		return DatasetRecord{ID: "d1", Name: "Iris", URL: "https://x.test/iris.csv"}
	}

	tests := []struct {
		name      string
		mutate    func(*DatasetRecord)
		wantField string
	}{
		{"valid record", func(r *DatasetRecord) {}, ""},
		{"missing id", func(r *DatasetRecord) { r.ID = "" }, "id"},
		{"blank id", func(r *DatasetRecord) { r.ID = "   " }, "id"},
		{"missing name", func(r *DatasetRecord) { r.Name = "" }, "name"},
		{"missing url", func(r *DatasetRecord) { r.URL = "" }, "url"},
		{"relative url", func(r *DatasetRecord) { r.URL = "/iris.csv" }, "url"},
		{"unsupported scheme", func(r *DatasetRecord) { r.URL = "ftp://x.test/iris.csv" }, "url"},
		{"hostless url", func(r *DatasetRecord) { r.URL = "https://" }, "url"},
		{"http url allowed", func(r *DatasetRecord) { r.URL = "http://x.test/iris.csv" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := valid()
			tt.mutate(&rec)
			err := rec.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Expected valid, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !IsValidation(err) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			ve = err.(*ValidationError)
			if ve.Field != tt.wantField {
				t.Errorf("Expected field %q, got %q", tt.wantField, ve.Field)
			}
		})
	}
}

func TestDatasetRecordNormalize(t *testing.T) {
	rec := DatasetRecord{ID: "d1", Name: "Iris", URL: "https://x.test/iris.csv"}
	rec.Normalize()
	if rec.Tags == nil || len(rec.Tags) != 0 {
		t.Errorf("Normalize should default tags to an empty slice, got %#v", rec.Tags)
	}

	tagged := DatasetRecord{ID: "d2", Name: "Wine", URL: "https://x.test/wine.csv", Tags: []string{"a"}}
	tagged.Normalize()
	if len(tagged.Tags) != 1 || tagged.Tags[0] != "a" {
		t.Errorf("Normalize must not touch existing tags, got %#v", tagged.Tags)
	}
}

func TestDatasetRecordJSONShape(t *testing.T) {
	rec := DatasetRecord{ID: "d1", Name: "Iris", URL: "https://x.test/iris.csv"}
	rec.Normalize()

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := m["rows"]; ok {
		t.Error("Absent rows should be omitted from the document")
	}
	if _, ok := m["columns"]; ok {
		t.Error("Absent columns should be omitted from the document")
	}
	tags, ok := m["tags"].([]any)
	if !ok || len(tags) != 0 {
		t.Errorf("Tags should serialize as an empty array, got %#v", m["tags"])
	}
}
