package mid

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"

	"github.com/doitintl/hello/offset-checkout/common"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/internal"
	"github.com/doitintl/hello/offset-checkout/logger"
)

const (
	// https://cloud.google.com/tasks/docs/creating-appengine-tasks#firewall_rules
	appEngineUserIPHeader = "X-Appengine-User-IP"
	appEngineCloudTasksIP = "0.1.0.2"

	identityTokenHeader = "X-Identity-Token"
)

// Auth errors
var (
	ErrForbidden    = errors.New("forbidden operation")
	ErrUnauthorized = errors.New("unauthorized operation")
)

// TokenValidator validates a google signed id token for the given audience.
type TokenValidator func(ctx *gin.Context, token, audience string) (*idtoken.Payload, error)

func defaultTokenValidator(ctx *gin.Context, token, audience string) (*idtoken.Payload, error) {
	return idtoken.Validate(ctx, token, audience)
}

// GetAllowedCloudTasksEmails returns the service accounts allowed to call task endpoints.
func GetAllowedCloudTasksEmails() []string {
	return []string{
		fmt.Sprintf("cloud-tasks@%s.iam.gserviceaccount.com", common.ProjectID),
		fmt.Sprintf("%s@appspot.gserviceaccount.com", common.ProjectID),
	}
}

// GetAllowedAdminEmails returns the service accounts allowed to call issuer
// endpoints: the App Engine default account and the configured ones.
func GetAllowedAdminEmails(configured []string) []string {
	emails := []string{fmt.Sprintf("%s@appspot.gserviceaccount.com", common.ProjectID)}

	for _, email := range configured {
		if email = strings.TrimSpace(email); email != "" {
			emails = append(emails, email)
		}
	}

	return emails
}

// AuthServiceAccount authenticates service-to-service requests (Cloud Tasks,
// issuer tooling) by their Google OIDC token.
func AuthServiceAccount(validClaimEmails []string) web.Middleware {
	return authServiceAccount(validClaimEmails, defaultTokenValidator)
}

func authServiceAccount(validClaimEmails []string, validate TokenValidator) web.Middleware {
	f := func(handler web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			l := logger.FromContext(ctx)

			// Skip validation when running in localhost
			if common.IsLocalhost && gin.Mode() != gin.TestMode {
				return handler(ctx)
			}

			// Skip OIDC auth validation when running app engine jobs
			if ctx.Request.Header.Get(appEngineUserIPHeader) == appEngineCloudTasksIP {
				return handler(ctx)
			}

			token, err := bearerToken(ctx)
			if err != nil {
				return err
			}

			payload, err := validateWithAudienceList(ctx, validate, token, []string{common.GAEService, common.APIGateway})
			if err != nil {
				return web.NewRequestError(err, http.StatusUnauthorized)
			}

			claimsEmail, _ := payload.Claims["email"].(string)
			if !isClaimEmailValid(validClaimEmails, claimsEmail) {
				l.Println("invalid token: does not match any valid claims email", claimsEmail, validClaimEmails)
				return web.NewRequestError(ErrForbidden, http.StatusForbidden)
			}

			return handler(ctx)
		}

		return h
	}

	return f
}

// Identity records a fingerprint of the opaque identity token supplied by the
// storefront session layer. Requests without a token pass through anonymously.
func Identity() web.Middleware {
	f := func(handler web.Handler) web.Handler {
		h := func(ctx *gin.Context) error {
			token := ctx.GetHeader(identityTokenHeader)
			if token == "" {
				return handler(ctx)
			}

			if v, ok := internal.DataFromContext(ctx); ok {
				v.Identity = Fingerprint(token)
				logger.FromContext(ctx).SetLabel("identity", v.Identity)
			}

			return handler(ctx)
		}

		return h
	}

	return f
}

// Fingerprint returns a short stable digest of an identity token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}

func bearerToken(ctx *gin.Context) (string, error) {
	authHeader := ctx.Request.Header.Get("Authorization")
	if authHeader == "" {
		return "", web.NewRequestError(errors.New("no authorization header"), http.StatusUnauthorized)
	}

	parts := strings.Split(authHeader, " ")

	// Validate auth header structure
	if len(parts) != 2 || parts[0] != "Bearer" {
		err := errors.New("invalid authorization header format, expected Bearer <token>")
		return "", web.NewRequestError(err, http.StatusUnauthorized)
	}

	return parts[1], nil
}

func validateWithAudienceList(ctx *gin.Context, validate TokenValidator, token string, audiences []string) (*idtoken.Payload, error) {
	for _, audience := range audiences {
		payload, err := validate(ctx, token, audience)
		if err == nil {
			return payload, nil
		}
	}

	logger.FromContext(ctx).Println("invalid token: does not match any valid audience")

	return nil, ErrUnauthorized
}

func isClaimEmailValid(emails []string, claimsEmail string) bool {
	for _, email := range emails {
		if email == claimsEmail {
			return true
		}
	}

	return false
}
