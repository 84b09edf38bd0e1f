package domain

import "time"

// Admin models an election organiser. PasswordHash, OTPSecret and the tokens
// never leave the core: they are excluded from JSON.
type Admin struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	EmailVerified     bool       `json:"email_verified"`
	VerificationToken string     `json:"-"`
	OTPSecret         string     `json:"-"`
	ResetToken        string     `json:"-"`
	ResetExpires      *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
