package utils

const (
	LandingURI     = "/"
	HealthURI      = "/health"
	AppURI         = "/app"
	LoginURI       = "/login"
	RegisterURI    = "/register"
	LogoutURI      = "/logout"
	SessionInfoURI = "/api/session"

	PINSetupURI    = "/pin/setup"
	PINVerifyURI   = "/pin/verify"
	PINChangeURI   = "/pin/change"
	PINRecoveryURI = "/pin/recovery"
	PINResetURI    = "/pin/reset"
	PINAuditURI    = "/api/pin/audit"
)

var DefaultSessionName = "session_token"
