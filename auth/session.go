package auth

import "github.com/go-pkgz/auth/v2/token"

// Session is the identity of the signed-in user for one request. It is passed
// explicitly to every operation that needs an owner; a nil *Session means the
// request is unauthenticated.
type Session struct {
	UserID      string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email,omitempty"`
	Picture     string `json:"picture,omitempty"`
}

func sessionFromUser(u token.User) *Session {
	return &Session{
		UserID:      u.ID,
		DisplayName: u.Name,
		Email:       u.Email,
		Picture:     u.Picture,
	}
}

func (s *Session) Name() string {
	if s == nil || s.DisplayName == "" {
		return "User"
	}
	return s.DisplayName
}
