package models

// TokenPair is the bearer credential pair used against the metadata API.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type TokenRefreshRequest struct {
	Token string `json:"token"`
}
