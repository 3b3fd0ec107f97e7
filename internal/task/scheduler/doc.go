// Package scheduler decides when a publication check runs.
//
// Gate is the run-hour filter applied to daemon triggers and the run command.
// Service wraps robfig/cron for the daemon: one schedule, one job, evaluated
// in the publisher's timezone, never overlapping itself.
package scheduler
