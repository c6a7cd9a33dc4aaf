package outbox

import (
	"fmt"

	"github.com/commercemesh/order-service/pkg/enums"
)

// Broker topics for outbound events.
const (
	TopicOrderCreated             = "order/order/created"
	TopicOrderCompensationCreated = "order/order-compensation/created"
)

var topicsByEventType = map[enums.OutboxEventType]string{
	enums.EventOrderCreated:             TopicOrderCreated,
	enums.EventOrderCompensationCreated: TopicOrderCompensationCreated,
}

// TopicFor resolves the broker topic an event type publishes to.
func TopicFor(eventType enums.OutboxEventType) (string, error) {
	if topic, ok := topicsByEventType[eventType]; ok {
		return topic, nil
	}
	return "", fmt.Errorf("no topic registered for event type %q", eventType)
}
