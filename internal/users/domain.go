package users

import "time"

// DefaultResetPassword is the password assigned by an admin reset.
const DefaultResetPassword = "password123"

// User represents an account as listed in the back-office.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ResetResult is returned after a password reset so the admin can pass the
// temporary password on.
type ResetResult struct {
	UserID      int64  `json:"userId"`
	NewPassword string `json:"newPassword"`
}
