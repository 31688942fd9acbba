// Package handlers keeps track of temporary changes made to a host
// environment so they can be undone reliably.
//
// A Registry stores records under string labels. Each registration call
// takes descriptions; a description may expand into several records (one
// signal description naming three events yields three connections). Teardown
// walks whatever records were produced, oldest first, and undoes each one:
//
//	signals := handlers.NewSubscriptions[pubsub.EventType, func(pubsub.Event[string])]()
//	_ = signals.AddWithLabel("windows",
//		handlers.On(broker, onWindow, "window-added", "window-removed"))
//	...
//	_ = signals.Destroy()
//
// Three specialisations are provided: Subscriptions (connect/disconnect),
// Overrides (replace a property, restore the original) and Timers (named
// scheduled callbacks). Registries are meant to be owned by one controller
// and destroyed exactly once before being dropped.
package handlers
