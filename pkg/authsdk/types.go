package authsdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Shared Types
// ============================================================================

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message" example:"Email and password are required"`
}

// MessageResponse is a success body with nothing but a message.
type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Signed out"`
}

// ============================================================================
// Auth Types
// ============================================================================

// User is the public view of an account. It never carries the password hash.
type User struct {
	ID        string    `json:"id" example:"01JB8ZQ8V4N7XK1Y3W5R2T6M9P"`
	Email     string    `json:"email" example:"alice@example.com"`
	Name      string    `json:"name,omitempty" example:"Alice"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// SignUpRequest is the body of POST /api/auth/signup.
type SignUpRequest struct {
	Name     string `json:"name,omitempty" example:"Alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// SignInRequest is the body of POST /api/auth/signin.
type SignInRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// AuthResponse is returned by sign-up and sign-in alongside the session cookie.
type AuthResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Signed in successfully"`
	User    User   `json:"user"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password" example:"a brand new password"`
}

// ============================================================================
// Waitlist Types
// ============================================================================

// WaitlistEntry is one person on the waitlist.
type WaitlistEntry struct {
	ID             string    `json:"id" example:"01JB8ZQ8V4N7XK1Y3W5R2T6M9P"`
	Email          string    `json:"email" example:"bob@example.com"`
	Name           string    `json:"name,omitempty" example:"Bob"`
	ReferralSource string    `json:"referralSource,omitempty" example:"twitter"`
	Position       int64     `json:"position" example:"42"`
	CreatedAt      time.Time `json:"createdAt"`
}

// JoinWaitlistRequest is the body of POST /api/waitlist.
type JoinWaitlistRequest struct {
	Email          string `json:"email" example:"bob@example.com"`
	Name           string `json:"name,omitempty" example:"Bob"`
	ReferralSource string `json:"referralSource,omitempty" example:"twitter"`
}

// JoinWaitlistResponse is returned when an email joins the waitlist.
type JoinWaitlistResponse struct {
	Success bool          `json:"success" example:"true"`
	Data    WaitlistEntry `json:"data"`
	Message string        `json:"message" example:"Successfully joined the waitlist!"`
}

// WaitlistData holds either a single entry (lookup by email) or the total.
type WaitlistData struct {
	Entry *WaitlistEntry `json:"entry,omitempty"`
	Total *int64         `json:"total,omitempty"`
}

// WaitlistResponse is returned by GET /api/waitlist and its stats route.
type WaitlistResponse struct {
	Success bool         `json:"success" example:"true"`
	Data    WaitlistData `json:"data"`
}

// ============================================================================
// Webhook Types
// ============================================================================

// ZapierEvent is the body Zapier posts to /api/webhooks/zapier.
type ZapierEvent struct {
	Event     string          `json:"event" example:"waitlist.signup"`
	Timestamp string          `json:"timestamp" example:"2025-03-01T12:00:00Z"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
}

// ZapierAck acknowledges a processed Zapier event.
type ZapierAck struct {
	Success   bool   `json:"success" example:"true"`
	Message   string `json:"message" example:"Webhook processed successfully"`
	EventType string `json:"eventType" example:"waitlist.signup"`
}

// ZapierInfo answers GET /api/webhooks/zapier.
type ZapierInfo struct {
	Success         bool     `json:"success" example:"true"`
	Message         string   `json:"message,omitempty" example:"Zapier webhook endpoint is active"`
	SupportedEvents []string `json:"supportedEvents,omitempty"`
	Challenge       string   `json:"challenge,omitempty"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status" example:"ok"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty" example:"1h23m45s"`

	// Version is the service version string
	Version string `json:"version,omitempty" example:"dev"`

	// Checks contains readiness results for dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of each dependency checked by /readyz.
type HealthChecks struct {
	Database   string `json:"database" example:"ok"`
	ResetGuard string `json:"resetGuard,omitempty" example:"ok"`
}
