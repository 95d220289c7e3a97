// Package transport binds the job queue to the pipeline. It provides a
// Redis list binding for local development, a Google Pub/Sub binding for
// production, and the consumer loop shared by both.
package transport
