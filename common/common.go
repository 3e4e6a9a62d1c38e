package common

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	ProjectID string

	GAEService string

	GAEVersion string

	Env string

	// Production flag indicating if app is running the production backend
	Production bool

	// IsLocalhost flag indicating if app is running on localhost
	IsLocalhost bool

	// APIGateway is the public base URL of this service
	APIGateway string

	appEngineURLFormat = "https://%s-dot-%s.uc.r.appspot.com"

	location = "us-central1"
)

const (
	productionProject = "offset-checkout-prod"

	TestProjectID = "offset-checkout-dev"
)

func initEnvVariables() {
	IsLocalhost = gin.Mode() != gin.ReleaseMode

	ProjectID = GetEnv("GOOGLE_CLOUD_PROJECT", "")
	if ProjectID == "" {
		if !IsLocalhost {
			log.Fatalln("environment variable GOOGLE_CLOUD_PROJECT is not set")
		}

		ProjectID = TestProjectID
	}

	GAEService = GetEnv("GAE_SERVICE", "offset-checkout")
	GAEVersion = GetEnv("GAE_VERSION", "localhost")

	APIGateway = GetEnv("API_GATEWAY", CreateAppEngineAudience())

	switch ProjectID {
	case productionProject:
		Env = "production"
		Production = true
	default:
		Env = "development"
		Production = false
	}
}

func init() {
	initEnvVariables()
}

// GetEnv returns the value of key, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

// GetEnvDuration parses a Go duration from the environment, e.g. "10s".
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(value) == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration in %s: %w", key, err)
	}

	return d, nil
}

func Location() string {
	return location
}

func CreateAppEngineAudience() string {
	return fmt.Sprintf(appEngineURLFormat, GAEService, ProjectID)
}
