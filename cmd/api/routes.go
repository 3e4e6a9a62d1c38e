package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	certHandlers "github.com/doitintl/hello/offset-checkout/certificates/handlers"
	"github.com/doitintl/hello/offset-checkout/framework/mid"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	paymentHandlers "github.com/doitintl/hello/offset-checkout/payments/handlers"
)

// routeAuth holds the middlewares guarding the non public groups.
type routeAuth struct {
	// tasks guards the Cloud Tasks workers.
	tasks web.Middleware
	// admin guards issuer actions such as revocation.
	admin web.Middleware
}

func registerRoutes(app *web.App, payments *paymentHandlers.Payments, certificates *certHandlers.Certificates, auth routeAuth) {
	app.Get("/health", func(ctx *gin.Context) error {
		return web.Respond(ctx, "OK", http.StatusOK)
	})

	v1 := web.NewGroup(app, "/v1", mid.Identity())
	{
		v1.Post("/checkout", payments.Checkout)
		v1.Get("/checkout/return", payments.Return)

		v1.Post("/certificates/issue", certificates.Issue)
		v1.Post("/certificates/generate", certificates.Generate)
		v1.Get("/certificates/verify", certificates.Verify)
		v1.Get("/certificates", certificates.List)
	}

	webhooks := web.NewGroup(app, "/webhooks", mid.RequireHeader(paymentHandlers.StripeSignatureHeader))
	webhooks.Post("/stripe", payments.Webhook)

	tasksGroup := web.NewGroup(app, "/tasks", auth.tasks)
	tasksGroup.Post("/certificates/artifact", certificates.RenderTask)

	admin := web.NewGroup(app, "/admin", auth.admin)
	admin.Post("/certificates/:certificateID/revoke", certificates.Revoke, mid.ValidatePathParamNotEmpty("certificateID"))
}
