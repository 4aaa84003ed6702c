package auth

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the auth and admin API under /api. Logout stays
// outside the session middleware so it is idempotent even with an
// expired or missing cookie.
func RegisterRoutes(app *fiber.App, ac *AuthController, adc *AdminController, cookies *RouteAuthenticator, repo RepositoryManager, resolver *RoleResolver, cfg Config) {
	protected := cookies.ProtectedRoute()

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/login", ac.Login)
	authGroup.Post("/register", ac.Register)
	authGroup.Post("/logout", ac.Logout)
	authGroup.Get("/me", protected, ac.Me)
	authGroup.Put("/profile", protected, ac.UpdateProfile)

	api.Get("/content/private",
		protected,
		RequireContentAccess(repo.Users(), cfg.GetContextKey()),
		ac.PrivateContent,
	)

	admin := api.Group("/admin",
		protected,
		RequireAdmin(repo.Users(), resolver, cfg.GetContextKey()),
	)
	admin.Get("/users", adc.ListUsers)
	admin.Put("/users/:id", adc.UpdateUser)
	admin.Delete("/users/:id", adc.DeleteUser)
	admin.Get("/whitelist", adc.ListWhitelist)
	admin.Post("/whitelist", adc.AddWhitelist)
	admin.Put("/whitelist/:id", adc.UpdateWhitelist)
	admin.Delete("/whitelist/:id", adc.RemoveWhitelist)
	admin.Get("/stats", adc.Stats)
}
