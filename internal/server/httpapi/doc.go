// Package httpapi is the JSON-over-HTTP transport of the account service.
// It binds request bodies, calls services.AuthService and maps its sentinel
// errors to status codes. Every response carries a boolean "success" field.
package httpapi
