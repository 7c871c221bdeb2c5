// Package task manages the lifecycle of batch image processing tasks.
// It owns the in-memory task store, the background runner that drives each
// task from pending to a terminal state off the request path, the retention
// sweeper that evicts finished tasks, and the service layer that HTTP
// handlers use to submit, poll, download and delete tasks.
package task
