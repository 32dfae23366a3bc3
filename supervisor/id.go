package supervisor

import "github.com/google/uuid"

// generateSessionID mints a globally-unique, opaque session id. Ids are
// never reused, including after a session's slot is reused for reopen
// (SPEC_FULL.md §4.C relies on this: the reducer's id minter and this one
// are independent generators, but both must be monotonic/unique within a
// run for the corresponding testable properties to hold).
func generateSessionID() string {
	return "session-" + uuid.New().String()
}
