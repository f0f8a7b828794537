// Package notif wires domain mutations to broker topics and builds the
// eligibility filter for each subscription request.
package notif

import (
	"context"
	"fmt"
	"slices"

	"group-chat/auth"
	"group-chat/core/chat"
	"group-chat/core/pubsub"
)

const (
	TopicMessageAdded = "messageAdded"
	TopicGroupAdded   = "groupAdded"
)

// Dispatcher implements chat.Notifier on top of one process-scoped broker.
type Dispatcher struct {
	broker *pubsub.Broker
}

func NewDispatcher(broker *pubsub.Broker) *Dispatcher {
	return &Dispatcher{broker: broker}
}

// MessageCreated runs in the mutation's completion path, after the write
// committed.
func (d *Dispatcher) MessageCreated(m chat.Message) {
	d.broker.Publish(TopicMessageAdded, m)
}

// GroupCreated publishes the group with its full member snapshot, so the
// filter never has to read the store.
func (d *Dispatcher) GroupCreated(g chat.Group) {
	d.broker.Publish(TopicGroupAdded, g)
}

// SubscribeMessages streams messages sent to any of groupIDs, except those
// the subscriber authored. who resolves asynchronously; until it does,
// events wait in this subscription's queue only.
func (d *Dispatcher) SubscribeMessages(ctx context.Context, who *auth.Future, groupIDs []string) *pubsub.Subscription {
	filter := func(ctx context.Context, event any) (bool, error) {
		msg, ok := event.(chat.Message)
		if !ok {
			return false, fmt.Errorf("unexpected event %T on topic %s", event, TopicMessageAdded)
		}

		subscriber, err := who.Wait(ctx)
		if err != nil {
			return false, err
		}

		return slices.Contains(groupIDs, msg.GroupID) && msg.AuthorID != subscriber.UserID, nil
	}

	return d.broker.Subscribe(ctx, TopicMessageAdded, filter)
}

// SubscribeGroups streams groups userID was just added to, except groups
// userID created. The creator comes from the event's explicit CreatorID
// field, never from member order.
func (d *Dispatcher) SubscribeGroups(ctx context.Context, who *auth.Future, userID string) *pubsub.Subscription {
	filter := func(ctx context.Context, event any) (bool, error) {
		group, ok := event.(chat.Group)
		if !ok {
			return false, fmt.Errorf("unexpected event %T on topic %s", event, TopicGroupAdded)
		}

		if _, err := who.Wait(ctx); err != nil {
			return false, err
		}

		return group.HasMember(userID) && group.CreatorID != userID, nil
	}

	return d.broker.Subscribe(ctx, TopicGroupAdded, filter)
}
