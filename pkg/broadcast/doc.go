// Package broadcast publishes typed values to any number of subscribers.
//
// MemoryBroadcaster stays inside one process. RedisBroadcaster goes through
// a Redis pub/sub channel, which lets several service replicas share one
// change feed. Subscribers that fall behind are closed.
//
//	sub := feed.Subscribe(ctx)
//	defer sub.Close()
//	for msg := range sub.Receive(ctx) {
//		render(msg.Data)
//	}
package broadcast
