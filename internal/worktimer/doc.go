// Package worktimer is the work-timer core: a single active timer per
// session, persisted through a durable key-value slot so it survives
// restarts, with threshold reminders while it runs and a time-log
// submission every time it stops.
//
// Machine is the one authoritative instance. UI surfaces read it through
// Snapshot and Subscribe and never touch the durable slot directly.
package worktimer
