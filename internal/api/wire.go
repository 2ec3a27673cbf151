// ABOUTME: Wire codec for the API's delimited-string fields
// ABOUTME: Lists and specification rows are sequences in Go and joined strings on the wire

package api

import (
	"encoding/json"
	"strings"
)

// List is an ordered list the API stores as a ", "-joined string
// (categories, origin countries, grades, packaging, certifications).
type List []string

// URLList is an ordered list the API stores as a ","-joined string (image URLs).
// The first entry is the primary image.
type URLList []string

// Spec is one "name: value" specification row.
type Spec struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Specs is the ordered specification table the API stores as newline-separated
// "name: value" lines.
type Specs []Spec

// SplitList splits a delimited string, trimming entries and dropping empties.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinTrimmed(items []string, sep string) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			parts = append(parts, item)
		}
	}
	return strings.Join(parts, sep)
}

// String returns the wire encoding.
func (l List) String() string { return joinTrimmed(l, ", ") }

// Contains reports whether v is in the list.
func (l List) Contains(v string) bool {
	for _, item := range l {
		if item == v {
			return true
		}
	}
	return false
}

// Toggle removes v when present and appends it otherwise.
func (l List) Toggle(v string) List {
	v = strings.TrimSpace(v)
	if v == "" {
		return l
	}
	out := make(List, 0, len(l)+1)
	found := false
	for _, item := range l {
		if item == v {
			found = true
			continue
		}
		out = append(out, item)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

func (l List) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *List) UnmarshalJSON(data []byte) error {
	s, err := decodeNullableString(data)
	if err != nil {
		return err
	}
	*l = SplitList(s)
	return nil
}

// String returns the wire encoding.
func (l URLList) String() string { return joinTrimmed(l, ",") }

// Primary returns the first URL or "".
func (l URLList) Primary() string {
	if len(l) == 0 {
		return ""
	}
	return l[0]
}

func (l URLList) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *URLList) UnmarshalJSON(data []byte) error {
	s, err := decodeNullableString(data)
	if err != nil {
		return err
	}
	*l = SplitList(s)
	return nil
}

// String returns the wire encoding. Rows with neither a name nor a value are
// skipped; a row missing one side keeps its colon so it parses back unchanged.
func (s Specs) String() string {
	lines := make([]string, 0, len(s))
	for _, row := range s {
		name := strings.TrimSpace(row.Name)
		value := strings.TrimSpace(row.Value)
		switch {
		case name == "" && value == "":
			continue
		case value == "":
			lines = append(lines, name+":")
		default:
			lines = append(lines, name+": "+value)
		}
	}
	return strings.Join(lines, "\n")
}

// Complete returns the rows that have both a name and a value.
func (s Specs) Complete() Specs {
	out := make(Specs, 0, len(s))
	for _, row := range s {
		name := strings.TrimSpace(row.Name)
		value := strings.TrimSpace(row.Value)
		if name != "" && value != "" {
			out = append(out, Spec{Name: name, Value: value})
		}
	}
	return out
}

// ParseSpecs splits each line at its first colon. Lines with neither a name nor
// a value are skipped; values may themselves contain colons.
func ParseSpecs(s string) Specs {
	var out Specs
	for _, line := range strings.Split(s, "\n") {
		name, value, _ := strings.Cut(line, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" && value == "" {
			continue
		}
		out = append(out, Spec{Name: name, Value: value})
	}
	return out
}

func (s Specs) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Specs) UnmarshalJSON(data []byte) error {
	str, err := decodeNullableString(data)
	if err != nil {
		return err
	}
	*s = ParseSpecs(str)
	return nil
}

func decodeNullableString(data []byte) (string, error) {
	if string(data) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	return s, nil
}
