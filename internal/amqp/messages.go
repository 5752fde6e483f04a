package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Action names the mutation a change message reports.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ConsumptionChangedMessage tells every web instance that backend data moved.
// It carries no record body; receivers drop whatever they derived from the
// old data.
type ConsumptionChangedMessage struct {
	ID        string    `json:"id,omitempty"`
	Action    Action    `json:"action"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewConsumptionChangedMessage(id string, action Action, origin string) *ConsumptionChangedMessage {
	return &ConsumptionChangedMessage{
		ID:        id,
		Action:    action,
		Origin:    origin,
		Timestamp: time.Now(),
	}
}

func (m *ConsumptionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ConsumptionChangedMessageFromJSON(data []byte) (*ConsumptionChangedMessage, error) {
	var msg ConsumptionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	return &msg, nil
}
