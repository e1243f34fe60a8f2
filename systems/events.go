package systems

import (
	"ebiten-arcade/ecs"
)

// Event type constants
const (
	EventLoopStarted ecs.EventType = "loop_started"
	EventLoopStopped ecs.EventType = "loop_stopped"
	EventEntityFault ecs.EventType = "entity_fault"
	EventAssetFailed ecs.EventType = "asset_failed"
)

// LoopStartedEvent is emitted once when Init schedules the first frame
type LoopStartedEvent struct {
	RunID string
}

// Type returns the event type
func (e LoopStartedEvent) Type() ecs.EventType {
	return EventLoopStarted
}

// LoopStoppedEvent is emitted once when the loop leaves the Running state
type LoopStoppedEvent struct {
	RunID  string
	Frames uint64
	Err    error // fault that halted the loop, nil on a requested stop
}

// Type returns the event type
func (e LoopStoppedEvent) Type() ecs.EventType {
	return EventLoopStopped
}

// EntityFaultEvent is emitted for every entity update or render failure
type EntityFaultEvent struct {
	Fault *EntityFaultError
}

// Type returns the event type
func (e EntityFaultEvent) Type() ecs.EventType {
	return EventEntityFault
}

// AssetFailedEvent is emitted when an asset the game needs could not be loaded
type AssetFailedEvent struct {
	Err error
}

// Type returns the event type
func (e AssetFailedEvent) Type() ecs.EventType {
	return EventAssetFailed
}
