// Package event provides the synchronous event bus used to announce target
// state changes.
//
// Publishers create events with NewEvent and hand them to Bus.Publish.
// Handlers run in the publisher's goroutine, in subscription order. A
// handler error or panic is counted and logged but never reaches the
// publisher: notification is fire-and-forget.
//
//	bus := event.NewBus(nil)
//	bus.Subscribe("target.**", func(ev event.Event) error {
//	    fmt.Println(ev.Type, ev.Payload)
//	    return nil
//	})
package event
