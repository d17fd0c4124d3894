// Package notifications delivers task lifecycle events via ntfy.
//
// The default implementation publishes to the topic configured in config.toml
// and gracefully degrades to a no-op when notifications are disabled. Workflow
// code depends only on the simple Service interface, so alternative transports
// can be added without touching the pipeline.
package notifications
