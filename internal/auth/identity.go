package auth

// Identity represents a normalized external authentication identity
// returned by an OAuth provider. It contains facts only, no decisions.
type Identity struct {
	Provider       string // e.g. "google"
	ProviderUserID string // provider-scoped unique user identifier (sub)
	Email          string // email returned by provider; required downstream
	EmailVerified  bool   // whether provider asserts email ownership
	Name           string // display name claim; may be empty
}
