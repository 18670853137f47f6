package core

type (
	// User is the authenticated identity behind a session. Subject is the
	// stable id issued by the auth provider and is what boards are keyed by.
	User struct {
		Subject   string `json:"subject"`
		Login     string `json:"login"`
		Email     string `json:"email,omitempty"`
		AvatarURL string `json:"avatarUrl"`
		Name      string `json:"name"`
	}
)
