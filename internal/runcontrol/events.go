package runcontrol

import (
	"github.com/dshills/arcdbg/internal/event"
	"github.com/dshills/arcdbg/internal/event/topic"
)

// Event topics published by the Controller.
const (
	TopicHalted       topic.Topic = "target.halted"
	TopicResumed      topic.Topic = "target.resumed"
	TopicDebugResumed topic.Topic = "target.debug.resumed"
	TopicDebugHalted  topic.Topic = "target.debug.halted"

	// TopicAll matches every Controller event.
	TopicAll topic.Topic = "target.**"
)

const eventSource = "runcontrol"

// StateChange is the payload of every Controller event.
type StateChange struct {
	State  ExecutionState
	Reason DebugReason
	PC     uint32
}

func (c *Controller) emit(t topic.Topic) {
	c.emitState(t, c.st.State)
}

// emitState publishes t with state in place of the current state, for
// events sent ahead of the transition they announce.
func (c *Controller) emitState(t topic.Topic, state ExecutionState) {
	if c.events == nil {
		return
	}
	payload := StateChange{State: state, Reason: c.st.Reason, PC: c.st.SavedPC}
	if err := c.events.Publish(event.NewEvent(t, payload, eventSource)); err != nil {
		c.log.Warn("publish %s: %v", t, err)
	}
}
