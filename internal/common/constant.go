package common

const (
	// AuthorizationHeaderName carries the session token on HTTP requests and
	// (lower-cased) in gRPC metadata.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix must precede the token in the authorization header.
	BearerPrefix = "Bearer "
)
