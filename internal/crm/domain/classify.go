package domain

// Classify compares what the CRM expects with what the agenda holds. It is
// the only place an IntegrityStatus is decided.
func Classify(expectsAppointment, found bool) IntegrityStatus {
	switch {
	case expectsAppointment && found:
		return StatusOK
	case expectsAppointment && !found:
		return StatusGhost
	case !expectsAppointment && found:
		return StatusManual
	default:
		return StatusNone
	}
}
