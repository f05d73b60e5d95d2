package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// TechnicianProfile is the technician relation attached to a case.
type TechnicianProfile struct {
	Name string `json:"name"`
}

// TechnicianProfiles accepts the relation as a single object, a list or
// null. Only the first entry is meaningful.
type TechnicianProfiles []TechnicianProfile

// UnmarshalJSON implements json.Unmarshaler.
func (p *TechnicianProfiles) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	if data[0] == '[' {
		var list []TechnicianProfile
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("technician profiles: %w", err)
		}
		*p = list
		return nil
	}

	var one TechnicianProfile
	if err := json.Unmarshal(data, &one); err != nil {
		return fmt.Errorf("technician profile: %w", err)
	}
	*p = TechnicianProfiles{one}
	return nil
}

// First returns the first profile, or nil.
func (p TechnicianProfiles) First() *TechnicianProfile {
	if len(p) == 0 {
		return nil
	}
	return &p[0]
}

// Name returns the trimmed name of the first profile.
func (p TechnicianProfiles) Name() string {
	if first := p.First(); first != nil {
		return strings.TrimSpace(first.Name)
	}
	return ""
}

// FlexibleID is an identifier that may arrive as a JSON string or number.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexibleID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("id must be a string or a number")
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string {
	return string(id)
}
