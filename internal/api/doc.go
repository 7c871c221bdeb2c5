// Package api handles incoming HTTP requests, request validation and
// response formatting for the image processing service. It adapts the
// multipart upload surface onto the task lifecycle service and translates
// domain errors into HTTP status codes and client-safe messages.
package api
