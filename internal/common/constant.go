// Package common contains shared constants, sentinel errors and small helpers
// used across taskkeeper components.
package common

// AuthorizationHeaderName carries the bearer token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only authorization scheme accepted by the server.
const BearerScheme = "Bearer"

// Task statuses. Status is stored as free-form text; these are the values
// the server itself writes.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusDone       = "done"
)

// TaskPriorityMedium is applied when a task is created without a priority.
const TaskPriorityMedium = "medium"
