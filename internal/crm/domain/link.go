package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ResolveByLink reports whether the appointment's structured payload points
// at one of the customer's cases. A missing or malformed payload is simply
// "no link".
func ResolveByLink(customer CustomerRecord, appt AppointmentRecord, rules Rules) bool {
	target := parseLink(appt.StructuredLink, rules)

	if target.caseID != "" {
		for _, c := range customer.Cases {
			if strings.TrimSpace(c.ID) == target.caseID {
				return true
			}
		}
	}

	return target.customerID != "" && target.customerID == strings.TrimSpace(customer.ID)
}

// linkTarget holds the ids an appointment payload points at. Empty means
// the payload does not carry that id.
type linkTarget struct {
	caseID     string
	customerID string
}

func parseLink(raw string, rules Rules) linkTarget {
	var target linkTarget
	payload, ok := parseLinkPayload(raw)
	if !ok {
		return target
	}
	if id, ok := payloadID(payload, rules.LinkCaseField); ok {
		target.caseID = id
	}
	if rules.LinkByCustomerID {
		if id, ok := payloadID(payload, rules.LinkCustomerField); ok {
			target.customerID = id
		}
	}
	return target
}

func parseLinkPayload(raw string) (map[string]json.RawMessage, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, false
	}
	return payload, payload != nil
}

// payloadID reads field as a string id. Numbers and strings are both
// accepted since the two ledgers type ids differently.
func payloadID(payload map[string]json.RawMessage, field string) (string, bool) {
	if field == "" {
		return "", false
	}
	raw, ok := payload[field]
	if !ok {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err == nil {
		return n.String(), true
	}

	return "", false
}
