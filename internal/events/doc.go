// Package events provides types and interfaces for the in-process event
// channel between the sync pipeline and its observers.
//
// The orchestrator emits events without knowing which handlers process them,
// which keeps the pipeline free of dependencies on the notification store or
// the API layer. The primary components are:
//   - Event: a status change or notification produced by the pipeline
//   - EventHandler: interface for components that can handle events
//   - EventEmitter: interface for components that can emit events
package events
