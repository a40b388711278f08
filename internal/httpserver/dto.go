package httpserver

import "time"

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Role        string `json:"role"`
}

type meResponse struct {
	Subject   string    `json:"subject"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type validationResponse struct {
	Valid bool `json:"valid"`
}

type messageResponse struct {
	Message string `json:"message"`
}
