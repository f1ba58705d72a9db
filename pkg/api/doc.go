// Package api implements the shelfd HTTP server: the todo and user
// resources, authentication, streaming endpoints, and the operational
// surface (health, readiness, status, metrics, state management).
package api
