// internal/models/device.go
package models

import "time"

type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

func (p Platform) Valid() bool {
	return p == PlatformWeb || p == PlatformAndroid || p == PlatformIOS
}

// DeviceEndpoint is a registered push destination. Endpoints are deactivated,
// never deleted.
type DeviceEndpoint struct {
	ID          string                 `json:"id"`
	Token       string                 `json:"-"`
	OwnerUserID string                 `json:"ownerUserId"`
	Platform    Platform               `json:"platform"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	IsActive    bool                   `json:"isActive"`
	LastUsed    time.Time              `json:"lastUsed"`
	CreatedAt   time.Time              `json:"createdAt"`
}
