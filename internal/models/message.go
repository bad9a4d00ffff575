package models

import "time"

// Message is a chat line between a project owner and an approved reviewer
type Message struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ApplicationID uint      `gorm:"index:idx_message_thread;not null" json:"application_id"`
	SenderID      string    `gorm:"size:100;not null" json:"sender_id"`
	SenderRole    string    `gorm:"size:20;not null" json:"sender_role"` // owner, reviewer
	SenderName    string    `gorm:"size:100;not null" json:"sender_name"`
	Text          string    `gorm:"size:1000;not null" json:"text"`
	Read          bool      `gorm:"column:is_read;default:false" json:"read"`
	CreatedAt     time.Time `gorm:"index:idx_message_thread" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
