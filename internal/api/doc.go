// Package api handles incoming HTTP requests for the study service: routing,
// request validation and response formatting. Handlers translate HTTP
// concerns into study service operations and map service errors to status
// codes with sanitized messages.
package api
