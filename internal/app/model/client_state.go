package model

import "time"

// Well known client state keys.
const (
	StateKeyToken         = "token"
	StateKeyCartSessionID = "cart_session_id"
)

// ClientState is one persisted value of a client namespace (a visitor or a
// CLI profile), the durable equivalent of browser local storage.
type ClientState struct {
	ID        uint      `gorm:"primarykey"`
	Namespace string    `gorm:"type:varchar(128);not null;uniqueIndex:idx_client_state_ns_key"`
	Key       string    `gorm:"column:state_key;type:varchar(64);not null;uniqueIndex:idx_client_state_ns_key"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (ClientState) TableName() string {
	return "client_states"
}
