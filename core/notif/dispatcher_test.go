package notif

import (
	"context"
	"testing"
	"time"

	"group-chat/auth"
	"group-chat/core/chat"
	"group-chat/core/pubsub"
)

func resolved(userID string) *auth.Future {
	f := auth.NewFuture()
	f.Complete(auth.Identity{UserID: userID}, nil)
	return f
}

func expectMessage(t *testing.T, sub *pubsub.Subscription, id string) {
	t.Helper()
	select {
	case ev := <-sub.C():
		msg, ok := ev.(chat.Message)
		if !ok || msg.ID != id {
			t.Fatalf("got %v, expected message %s", ev, id)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for message %s", id)
	}
}

func expectNothing(t *testing.T, sub *pubsub.Subscription) {
	t.Helper()
	select {
	case ev := <-sub.C():
		t.Fatalf("unexpected event %v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMessageFanOutSkipsAuthor(t *testing.T) {
	broker := pubsub.NewBroker()
	d := NewDispatcher(broker)

	// subscriber A is the author, subscriber B is another member
	subA := d.SubscribeMessages(context.Background(), resolved("3"), []string{"7"})
	defer subA.Close()
	subB := d.SubscribeMessages(context.Background(), resolved("9"), []string{"7"})
	defer subB.Close()

	d.MessageCreated(chat.Message{ID: "1", GroupID: "7", AuthorID: "3"})

	expectMessage(t, subB, "1")
	expectNothing(t, subA)
}

func TestMessageFanOutFiltersByGroup(t *testing.T) {
	broker := pubsub.NewBroker()
	d := NewDispatcher(broker)

	sub := d.SubscribeMessages(context.Background(), resolved("9"), []string{"7", "8"})
	defer sub.Close()

	d.MessageCreated(chat.Message{ID: "1", GroupID: "42", AuthorID: "3"})
	d.MessageCreated(chat.Message{ID: "2", GroupID: "8", AuthorID: "3"})

	expectMessage(t, sub, "2")
}

func TestGroupFanOutSkipsCreator(t *testing.T) {
	broker := pubsub.NewBroker()
	d := NewDispatcher(broker)

	member := d.SubscribeGroups(context.Background(), resolved("9"), "9")
	defer member.Close()
	creator := d.SubscribeGroups(context.Background(), resolved("3"), "3")
	defer creator.Close()
	outsider := d.SubscribeGroups(context.Background(), resolved("50"), "50")
	defer outsider.Close()

	d.GroupCreated(chat.Group{ID: "g1", CreatorID: "3", MemberIDs: []string{"3", "9"}})

	select {
	case ev := <-member.C():
		group, ok := ev.(chat.Group)
		if !ok || group.ID != "g1" {
			t.Fatalf("got %v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("member never notified of the new group")
	}

	expectNothing(t, creator)
	expectNothing(t, outsider)
}

func TestDeliveryWaitsForIdentity(t *testing.T) {
	broker := pubsub.NewBroker()
	d := NewDispatcher(broker)

	pending := auth.NewFuture()
	sub := d.SubscribeMessages(context.Background(), pending, []string{"7"})
	defer sub.Close()

	d.MessageCreated(chat.Message{ID: "1", GroupID: "7", AuthorID: "3"})

	// nothing can be delivered while identity is unresolved
	expectNothing(t, sub)

	pending.Complete(auth.Identity{UserID: "9"}, nil)
	expectMessage(t, sub, "1")
}

func TestIdentityFailureDropsEvents(t *testing.T) {
	broker := pubsub.NewBroker()
	d := NewDispatcher(broker)

	failed := auth.NewFuture()
	failed.Complete(auth.Identity{}, auth.ErrUnauthorized)

	sub := d.SubscribeMessages(context.Background(), failed, []string{"7"})
	defer sub.Close()

	other := d.SubscribeMessages(context.Background(), resolved("9"), []string{"7"})
	defer other.Close()

	d.MessageCreated(chat.Message{ID: "1", GroupID: "7", AuthorID: "3"})

	// the failing subscriber gets nothing, its neighbor is unaffected
	expectMessage(t, other, "1")
	expectNothing(t, sub)
}
