package mailx

// PostmarkConfig holds the Postmark credentials and sender identity.
// BaseURL is only overridden in tests.
type PostmarkConfig struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"MAIL_FROM" envDefault:"noreply@launchpad.local"`
	SupportEmail string `env:"MAIL_REPLY_TO"`
	BaseURL      string `env:"POSTMARK_BASE_URL"`
}
