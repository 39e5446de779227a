// Package handlers implements the showcase HTTP endpoints: the index page,
// the fragments each example requests, and the health endpoint.
package handlers
