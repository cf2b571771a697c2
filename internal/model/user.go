package model

// User type constants.
const (
	UserTypeHuman = "human"
	UserTypeBot   = "bot"
)

// User is a member of the team. Identity is immutable once created;
// tasks and subtasks reference users by ID only.
type User struct {
	ID       string `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	FullName string `json:"full_name,omitempty" db:"full_name"`
	UserType string `json:"user_type" db:"user_type"`
}

// DisplayName returns the full name when set, falling back to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
