package dto

// MeInput represents the input for the current-identity endpoint
type MeInput struct {
	Authorization string `header:"Authorization" description:"Bearer token for authentication"`
	Cookie        string `header:"Cookie" description:"Cookie header containing medgate_auth_token"`
}

// MeResponse describes the authenticated caller and its resolved access
type MeResponse struct {
	UserID      string   `json:"user_id"`
	Email       string   `json:"email,omitempty"`
	Name        string   `json:"name,omitempty"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	FullAccess  bool     `json:"full_access"`
}

// MeOutput wraps the current-identity response
type MeOutput struct {
	Body MeResponse `json:"body"`
}

// DevTokenInput represents the input for minting a development token
type DevTokenInput struct {
	Body struct {
		UserID string `json:"user_id" required:"true" description:"Subject for the token"`
		Email  string `json:"email" format:"email" description:"Email claim"`
		Name   string `json:"name" description:"Display name claim"`
	} `json:"body"`
}

// DevTokenOutput wraps a minted development token
type DevTokenOutput struct {
	Body struct {
		Token string `json:"token"`
	} `json:"body"`
}
