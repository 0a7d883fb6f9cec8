package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Event is the envelope published on the EventBus and relayed to
// websocket clients.
type Event struct {
	Kind    string    `json:"kind"`
	GameID  string    `json:"game_id,omitempty"`
	PickID  string    `json:"pick_id,omitempty"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// PublishEvent marshals ev and publishes it on channel. A nil bus is a
// no-op so engines can run without Redis.
func PublishEvent(ctx context.Context, bus EventBus, channel string, ev Event) error {
	if bus == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("event: marshal %s: %w", ev.Kind, err)
	}
	if err := bus.Publish(ctx, channel, data); err != nil {
		return External("event: publish "+ev.Kind, err)
	}
	return nil
}
