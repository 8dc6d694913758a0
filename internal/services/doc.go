// Package services holds cross-cutting helpers shared by the processing
// services: error classification markers, error wrapping, and context keys
// for request tokens and pipeline stages.
package services
