package domain

import "time"

type WaitlistEntry struct {
	ID             string
	Email          string
	Name           string
	ReferralSource string
	Position       int64 // 1-based join order, assigned by the store
	CreatedAt      time.Time
}
