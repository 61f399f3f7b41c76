package appMiddleware

import "github.com/golang-jwt/jwt/v5"

type contextKey string

const OperatorKey contextKey = "operator"

// DiagnosticsAudience must appear in the aud claim of diagnostics tokens.
const DiagnosticsAudience = "city-guide-diagnostics"

// Claims identify the operator calling a diagnostics endpoint.
type Claims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}
