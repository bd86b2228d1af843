package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationDTO struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type" example:"deposit"`
	Title     string          `json:"title" example:"Deposit credited"`
	Message   string          `json:"message" example:"12.5 DOGE was added to your balance"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
	IsRead    bool            `json:"is_read" example:"false"`
	CreatedAt time.Time       `json:"created_at"`
}

type NotificationsResponseDTO struct {
	Success       bool              `json:"success" example:"true"`
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int               `json:"unread_count" example:"3"`
}

type MarkReadResponseDTO struct {
	Success bool  `json:"success" example:"true"`
	Updated int64 `json:"updated" example:"3"`
}
