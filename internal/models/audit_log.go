package models

// Audit actions.
const (
	AuditRegister     = "REGISTER"
	AuditLogin        = "LOGIN"
	AuditTrade        = "TRADE"
	AuditUpsertStocks = "UPSERT_STOCKS"
)

// Audited resource types.
const (
	ResourceUser        = "user"
	ResourceStock       = "stock"
	ResourceTransaction = "transaction"
)

// AuditLog is an append-only record of account and trading activity. UserID
// is nil for pipeline writes, which act on behalf of no user.
type AuditLog struct {
	Base
	UserID       *string `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action       string  `gorm:"size:32;not null;index" json:"action"`
	ResourceType string  `gorm:"size:32;not null" json:"resource_type"`
	ResourceID   string  `json:"resource_id,omitempty"`
	IPAddress    string  `gorm:"size:45" json:"ip_address"`
	Changes      string  `json:"changes,omitempty"`
}
