// Package api contains the HTTP handlers for accounts and todos. Handlers
// decode and validate requests, call the services with the requester's
// identity and translate service errors into JSON error responses.
package api
