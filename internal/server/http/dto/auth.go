package dto

// AuthRequest describes login/password payload.
type AuthRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterRequest extends AuthRequest with optional profile fields.
type RegisterRequest struct {
	AuthRequest
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// TokenResponse echoes the issued token for clients that cannot read cookies.
type TokenResponse struct {
	Token string `json:"token"`
}
