package schema

import "cloud.google.com/go/civil"

// IsActiveAt reports whether the section is installed in the well on date.
// A section that was never installed is never active; a section without a
// removal date stays active from its install date onwards.
func IsActiveAt(s Section, date civil.Date) bool {
	if s.InstallDate == nil {
		return false
	}
	if date.Before(*s.InstallDate) {
		return false
	}
	if s.RemoveDate != nil && date.After(*s.RemoveDate) {
		return false
	}
	return true
}
