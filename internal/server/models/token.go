package models

// TokenPair bundles a short-lived access token and a long-lived opaque
// refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
