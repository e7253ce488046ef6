// Package events carries engine notifications to in-process observers.
package events

import (
	"fmt"

	"github.com/Klingon-tech/metaverse-nft/pkg/types"
	evbus "github.com/asaskevich/EventBus"
)

// TopicFundManagerChanged is published once per successful fund manager
// change.
const TopicFundManagerChanged = "vault:FundManagerChanged"

// FundManagerChanged carries the previous and the new manager, in that
// order, of the collection at Collection.
type FundManagerChanged struct {
	Collection types.Address `json:"collection"`
	Old        types.Address `json:"old"`
	New        types.Address `json:"new"`
}

// Bus is a synchronous topic bus. Handlers run on the publisher's
// goroutine before Publish returns.
type Bus struct {
	bus evbus.Bus
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Subscribe registers fn for topic. fn must be a func whose parameters
// match what is published on topic.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	if err := b.bus.Subscribe(topic, fn); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Unsubscribe removes fn from topic.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	if err := b.bus.Unsubscribe(topic, fn); err != nil {
		return fmt.Errorf("unsubscribe %s: %w", topic, err)
	}
	return nil
}

// Publish delivers args to every handler of topic.
func (b *Bus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// OnFundManagerChanged subscribes a typed handler and returns a function
// that removes it.
func (b *Bus) OnFundManagerChanged(fn func(FundManagerChanged)) (func(), error) {
	if err := b.Subscribe(TopicFundManagerChanged, fn); err != nil {
		return nil, err
	}
	return func() { _ = b.Unsubscribe(TopicFundManagerChanged, fn) }, nil
}

// PublishFundManagerChanged publishes ev on TopicFundManagerChanged.
func (b *Bus) PublishFundManagerChanged(ev FundManagerChanged) {
	b.Publish(TopicFundManagerChanged, ev)
}
