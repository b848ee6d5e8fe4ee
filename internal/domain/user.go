package domain

// User represents an account of the mock credential store
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// StoredUser is a user record as persisted by the credential store
type StoredUser struct {
	User
	PasswordHash string `json:"password_hash"`
}
