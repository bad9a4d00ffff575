package services

// Actor is the authenticated caller, as supplied by the identity provider.
type Actor struct {
	UserID   string
	Username string
	Email    string
	Role     string
}
