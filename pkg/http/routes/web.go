package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oarkflow/pinauth/pkg/http/handlers"
	"github.com/oarkflow/pinauth/pkg/http/middlewares"
	"github.com/oarkflow/pinauth/pkg/utils"
)

// Setup mounts the public routes. Login and register carry the rate
// limiter so credential stuffing burns the window before the database.
func Setup(prefix string, router fiber.Router) {
	route := router.Group(prefix)
	route.Get(utils.HealthURI, handlers.HealthCheck)
	route.Post(utils.RegisterURI, middlewares.RateLimit, handlers.PostRegister)
	route.Post(utils.LoginURI, middlewares.RateLimit, handlers.PostLogin)
}

// ProtectedRoutes mounts routes that require a valid session token.
// PIN verification is not required here; these are the routes a user
// in the "pending" state uses to get verified or recover.
func ProtectedRoutes(route fiber.Router) {
	route.Post(utils.PINSetupURI, handlers.PostPINSetup)
	route.Post(utils.PINVerifyURI, middlewares.RateLimit, handlers.PostPINVerify)
	route.Post(utils.PINChangeURI, handlers.PostPINChange)
	route.Post(utils.PINRecoveryURI, middlewares.RateLimitWithMax(5), handlers.PostPINRecovery)
	route.Post(utils.PINResetURI, middlewares.RateLimit, handlers.PostPINReset)
	route.Post(utils.LogoutURI, handlers.PostLogout)
	route.Get(utils.SessionInfoURI, handlers.SessionInfo)
}

// PINProtectedRoutes mounts routes that additionally require the
// session to have passed PIN verification.
func PINProtectedRoutes(route fiber.Router) {
	route.Get(utils.AppURI, handlers.AppStatus)
	route.Get(utils.PINAuditURI, handlers.AuditLogs)
}
