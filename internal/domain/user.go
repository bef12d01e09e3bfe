package domain

// UserContact is the read-only profile slice mirrored onto orders so the
// order keeps working contact data even if the profile changes later.
type UserContact struct {
	ID    string
	Name  string
	Email string
}
