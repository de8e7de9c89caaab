package domain

// OAuthOutcome is how a provider sign-in was reconciled with local accounts.
// It is derived on every callback and never stored.
type OAuthOutcome string

const (
	// OAuthDenied means a password account already owns the email.
	OAuthDenied OAuthOutcome = "denied"

	// OAuthLinked means an existing password-less account was signed in.
	OAuthLinked OAuthOutcome = "linked"

	// OAuthCreated means a new password-less account was created.
	OAuthCreated OAuthOutcome = "created"
)

// OAuthProfile is what we keep from the provider's userinfo response.
type OAuthProfile struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}
