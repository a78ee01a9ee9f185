// internal/models/audit.go
package models

// AuditEntry records one state-changing API call.
type AuditEntry struct {
	BaseDocument
	UserID       string `json:"userId,omitempty" firestore:"userId,omitempty" gorm:"size:128;index"`
	Action       string `json:"action" firestore:"action" gorm:"size:100;not null;index"`
	ResourceType string `json:"resourceType" firestore:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   string `json:"resourceId,omitempty" firestore:"resourceId,omitempty" gorm:"size:64;index"`
	Status       int    `json:"status" firestore:"status"`
	RequestID    string `json:"requestId,omitempty" firestore:"requestId,omitempty" gorm:"size:64"`
	IPAddress    string `json:"ipAddress" firestore:"ipAddress" gorm:"size:45"`
	UserAgent    string `json:"userAgent" firestore:"userAgent" gorm:"type:text"`
}

func (AuditEntry) TableName() string {
	return AuditCollection
}
