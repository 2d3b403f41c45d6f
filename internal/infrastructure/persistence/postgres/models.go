package postgres

import "time"

type accessTokenModel struct {
	ID                int64
	AssociatedSetting string
	AccessToken       string // encrypted, base64
	TokenFetchTime    time.Time
	ExpiryTime        time.Time
}

type integrationRequestModel struct {
	ID        string
	URL       string
	Payload   string
	Headers   map[string]string
	Status    string
	Output    *string
	Error     *string
	CreatedAt time.Time
	UpdatedAt *time.Time
}
