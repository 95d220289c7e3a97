// Package services holds the error taxonomy and request-scoped context
// helpers shared by the pipeline and its external service adapters.
package services
