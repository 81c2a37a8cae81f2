package common

// AuthorizationHeaderName is the HTTP header (and gRPC metadata key) that
// carries the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token inside the authorization value.
const BearerPrefix = "Bearer "

// Environment names recognised by the server configuration.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"
)
