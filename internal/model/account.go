package model

// User is the signed-in account.
type User struct {
	ID       int64  `json:"user_id"`
	LoginID  string `json:"login_id"`
	Username string `json:"username"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// SignupRequest creates an account.
type SignupRequest struct {
	LoginID  string `json:"login_id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// ProfileUpdate changes the display name.
type ProfileUpdate struct {
	Username string `json:"username"`
}

// PasswordChange replaces the account password.
type PasswordChange struct {
	CurrentPassword    string `json:"current_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}
