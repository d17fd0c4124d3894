// Package queue persists render tasks in SQLite and enforces the task
// lifecycle state machine.
package queue
