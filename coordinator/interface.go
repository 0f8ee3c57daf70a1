package coordinator

import "relay/broker"

// Publisher delivers outbound events to connections.
//
//go:generate mockgen -destination=mock_publisher.go -package=coordinator . Publisher
type Publisher interface {
	Publish(topic broker.Topic, detail broker.Detail, message any) error
}
