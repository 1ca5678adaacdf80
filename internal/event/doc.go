/*
Package event provides a type-safe, pub/sub event system for the ollm core
services.

The event system lets the memory store, context manager, compression
engine, model management service, and project profile service announce
state changes without depending on whatever consumes them (a TUI, a
headless runner, a test).

# Architecture

The package is built on top of watermill's gochannel for infrastructure
while keeping direct-call semantics so subscribers get concrete event
data, not re-marshaled JSON.

# Event Types

  - memory.remembered / memory.forgotten
  - context.added / context.removed
  - session.compacted
  - model.loaded / model.unloaded / model.pulled / model.deleted
  - project.initialized

# Basic Usage

	event.PublishSync(event.Event{
		Type: event.MemoryRemembered,
		Data: event.MemoryRememberedData{Key: "user_name", Category: "preference"},
	})

	unsubscribe := event.Subscribe(event.ModelUnloaded, func(e event.Event) {
		data := e.Data.(event.ModelUnloadedData)
		logging.Info().Str("model", data.Name).Str("reason", data.Reason).Msg("model unloaded")
	})
	defer unsubscribe()

# Subscriber Safety Guidelines

PublishSync calls subscribers synchronously in the publisher's goroutine.
Subscribers must complete quickly and must never call Publish/PublishSync
re-entrantly.

# Custom Event Bus

	bus := event.NewBus()
	defer bus.Close()

# Thread Safety

The event bus is safe for concurrent publish/subscribe from multiple
goroutines.
*/
package event
