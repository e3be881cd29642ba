package models

// Person is the recipient/actor view used by notification delivery. It is a
// projection of the platform's person record, not the full profile.
type Person struct {
	ID            int64  `json:"id"`
	AccountID     string `json:"account_id"`
	DisplayName   string `json:"display_name"`
	Email         string `json:"email"`
	AccountLocked bool   `json:"account_locked"`
}
