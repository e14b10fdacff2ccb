package events

import "context"

// Nop drops every event. Used when Kafka is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error {
	return nil
}
