// Package recipe models the recipe payloads returned by the generation
// service. The client treats them as opaque values: only the markdown body is
// inspected, and unknown fields survive a store round trip untouched.
package recipe

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ID identifies a saved recipe. The backend sends numeric ids for stored
// recipes and nothing at all for freshly generated ones.
type ID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Int returns the numeric form of the id, if it has one.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// Recipe is a generated or saved recipe.
type Recipe struct {
	ID              ID
	Title           string
	MarkdownContent string
	IsSaved         bool
	IsError         bool

	// extra keeps every field the client does not interpret.
	extra map[string]json.RawMessage
	// quotedID records that the id arrived as a JSON string, so "007"
	// is written back as "007" and not 7.
	quotedID bool
}

var knownFields = []string{"id", "title", "markdown_content", "is_saved", "is_error"}

// UnmarshalJSON decodes the known fields and keeps the rest verbatim.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var known struct {
		ID              ID     `json:"id"`
		Title           string `json:"title"`
		MarkdownContent string `json:"markdown_content"`
		IsSaved         bool   `json:"is_saved"`
		IsError         bool   `json:"is_error"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	rawID := bytes.TrimSpace(fields["id"])
	for _, name := range knownFields {
		delete(fields, name)
	}

	*r = Recipe{
		ID:              known.ID,
		Title:           known.Title,
		MarkdownContent: known.MarkdownContent,
		IsSaved:         known.IsSaved,
		IsError:         known.IsError,
		quotedID:        len(rawID) > 0 && rawID[0] == '"',
	}
	if len(fields) > 0 {
		r.extra = fields
	}
	return nil
}

// MarshalJSON writes the known fields merged with the preserved ones.
func (r Recipe) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(r.extra)+len(knownFields))
	for k, v := range r.extra {
		out[k] = v
	}
	if r.ID != "" {
		if n, ok := r.ID.Int(); ok && !r.quotedID {
			out["id"] = n
		} else {
			out["id"] = string(r.ID)
		}
	}
	out["title"] = r.Title
	out["markdown_content"] = r.MarkdownContent
	if r.IsSaved {
		out["is_saved"] = true
	}
	if r.IsError {
		out["is_error"] = true
	}
	return json.Marshal(out)
}

// Field returns a preserved field the client does not model.
func (r Recipe) Field(name string) (json.RawMessage, bool) {
	v, ok := r.extra[name]
	return v, ok
}
