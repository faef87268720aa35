// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It acts as an adapter between the local frontend
// and the internal sync services, translating HTTP concerns to portfolio
// tracking operations.
package api
