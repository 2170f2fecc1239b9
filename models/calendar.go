package models

import "time"

// LarkTokenID is the id of the single Lark token document.
const LarkTokenID = "lark"

// LarkToken is the user access token obtained from the Lark OAuth flow.
// AccessToken and RefreshToken are sealed at rest.
type LarkToken struct {
	ID               string    `bson:"id" json:"-"`
	AccessToken      string    `bson:"accessToken" json:"-"`
	RefreshToken     string    `bson:"refreshToken" json:"-"`
	ExpiresAt        time.Time `bson:"expiresAt" json:"expiresAt"`
	RefreshExpiresAt time.Time `bson:"refreshExpiresAt" json:"refreshExpiresAt"`
	OpenID           string    `bson:"openId,omitempty" json:"openId,omitempty"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

type ProviderStatus struct {
	Connected      bool  `json:"connected"`
	HasCredentials *bool `json:"hasCredentials,omitempty"`
}

type CalendarStatusResponse struct {
	Google ProviderStatus `json:"google"`
	Lark   ProviderStatus `json:"lark"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}
