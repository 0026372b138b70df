package domain

import (
	"time"
)

// AvatarUpload describes a pending profile-picture upload. The client PUTs the
// file to UploadURL with the same Content-Type, then sets ImageURL on its profile.
type AvatarUpload struct {
	UploadURL   string    `json:"uploadUrl"`
	ImageURL    string    `json:"imageUrl"`
	ObjectKey   string    `json:"objectKey"`
	ContentType string    `json:"contentType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
