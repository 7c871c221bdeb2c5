// Package pixian implements background removal against the Pixian.AI HTTP
// API. Images are uploaded as multipart form data with HTTP basic auth and
// the provider responds with the processed PNG. Transient failures (network
// errors, 429 and 5xx responses) are retried with jittered exponential
// backoff; other client errors are returned immediately.
package pixian
