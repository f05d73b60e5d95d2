package domain

import (
	"strings"

	"crm_sync_backend/platform/phone"
)

// Agenda indexes appointments for matching. Each structured link and phone
// number is parsed once, so matching a customer costs one lookup per case
// instead of a scan over the whole agenda.
type Agenda struct {
	appointments []AppointmentRecord
	byCase       map[string]int
	byCustomer   map[string]int
	byPhone      map[string]int
}

// NewAgenda indexes appointments under rules. Only the first appointment
// for a given key is kept, which preserves list order as the tie breaker.
func NewAgenda(appointments []AppointmentRecord, rules Rules) *Agenda {
	a := &Agenda{
		appointments: appointments,
		byCase:       make(map[string]int),
		byCustomer:   make(map[string]int),
		byPhone:      make(map[string]int),
	}
	for i := range appointments {
		target := parseLink(appointments[i].StructuredLink, rules)
		setFirst(a.byCase, target.caseID, i)
		setFirst(a.byCustomer, target.customerID, i)
		if key := rules.Phone.Last10(appointments[i].CustomerPhoneOnFile); phone.Comparable(key) {
			setFirst(a.byPhone, key, i)
		}
	}
	return a
}

func setFirst(index map[string]int, key string, i int) {
	if key == "" {
		return
	}
	if _, ok := index[key]; !ok {
		index[key] = i
	}
}

// Find picks at most one appointment for customer. A structural link always
// wins; the phone number is only consulted when no appointment links to the
// customer's cases. The earliest appointment in list order breaks ties.
func (a *Agenda) Find(customer CustomerRecord, rules Rules) (*AppointmentRecord, MatchMethod) {
	best := -1
	consider := func(i int, ok bool) {
		if ok && (best < 0 || i < best) {
			best = i
		}
	}
	for _, c := range customer.Cases {
		if id := strings.TrimSpace(c.ID); id != "" {
			i, ok := a.byCase[id]
			consider(i, ok)
		}
	}
	if id := strings.TrimSpace(customer.ID); id != "" {
		i, ok := a.byCustomer[id]
		consider(i, ok)
	}
	if best >= 0 {
		return &a.appointments[best], MatchLink
	}

	key := rules.Phone.Last10(customer.Phone)
	if !phone.Comparable(key) {
		return nil, MatchNone
	}
	if i, ok := a.byPhone[key]; ok {
		return &a.appointments[i], MatchPhone
	}

	return nil, MatchNone
}

// FindAppointment matches a single customer without keeping an index.
func FindAppointment(customer CustomerRecord, appointments []AppointmentRecord, rules Rules) (*AppointmentRecord, MatchMethod) {
	return NewAgenda(appointments, rules).Find(customer, rules)
}
