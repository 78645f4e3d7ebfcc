package models

// User is the read-only reference to an account owned by the external
// auth service. The core refers to users by id everywhere else.
type User struct {
	ID          string `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	DisplayName string `db:"display_name" json:"display_name"`
}
