package models

import (
	"time"
)

// Mapping связь короткого идентификатора с исходным URL. После создания не изменяется.
type Mapping struct {
	ID        string    `json:"id"`
	LongURL   string    `json:"long_url"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateMappingInput struct {
	LongURL  string  `json:"long_url"`
	CustomID *string `json:"custom_id,omitempty"`
}
