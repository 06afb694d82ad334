package models

// AuditLog records mutating user operations along with the request that caused them.
type AuditLog struct {
	Base
	UserID       string `gorm:"not null;index" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	RequestID    string `json:"request_id"`
	Changes      string `json:"changes,omitempty"`
}
