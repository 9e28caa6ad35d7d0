package middlewares

const (
	CtxRequestID = "request_id"
	CtxClaims    = "auth.claims"
)
