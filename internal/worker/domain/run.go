package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Run is a claimed run request
type Run struct {
	RunID        string `db:"run_id"`
	ConfigFolder string `db:"config_folder"`
	Status       string `db:"status"`
	WorkerID     string `db:"worker_id"`
}

// RunMessage represents a run request from RabbitMQ
type RunMessage struct {
	RunID       string `json:"run_id"`
	DeliveryTag uint64 `json:"-"`
}

// ParseRunMessage decodes a delivery body and checks the run id is a UUID
func ParseRunMessage(body []byte, deliveryTag uint64) (*RunMessage, error) {
	var msg RunMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	if _, err := uuid.Parse(msg.RunID); err != nil {
		return nil, fmt.Errorf("%w: run_id %q is not a UUID", ErrInvalidMessage, msg.RunID)
	}

	msg.DeliveryTag = deliveryTag
	return &msg, nil
}
