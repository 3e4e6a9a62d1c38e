package secretmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doitintl/hello/offset-checkout/common"
)

type SecretName string

// Secrets read by the checkout service.
const (
	// SecretStripe holds {"api_key", "webhook_sign_key"}.
	SecretStripe SecretName = "stripe-checkout"
	// SecretGoogleDrive holds the service account json used to render certificates.
	SecretGoogleDrive SecretName = "google-drive"
)

const (
	latestVersion = "latest"
)

// ErrSecretNotFound is returned when the secret or version does not exist, or
// the service account may not read it.
var ErrSecretNotFound = errors.New("secret not found")

// fetchFunc reads a secret payload by its full resource name.
type fetchFunc func(ctx context.Context, name string) ([]byte, error)

var (
	cache = make(map[string][]byte)
	mutex sync.Mutex
	group singleflight.Group
	fetch fetchFunc = fetchFromSecretManager
)

// AccessSecretLatestVersion returns the payload of the latest version of secret.
func AccessSecretLatestVersion(ctx context.Context, secret SecretName) ([]byte, error) {
	return AccessSecretVersion(ctx, string(secret), latestVersion)
}

// AccessSecretVersion returns the payload of a secret version. Payloads are
// cached for the life of the process and concurrent first reads share one call.
func AccessSecretVersion(ctx context.Context, secret, version string) ([]byte, error) {
	name := secretResourceName(common.ProjectID, secret, version)

	mutex.Lock()
	v, ok := cache[name]
	mutex.Unlock()

	if ok {
		return v, nil
	}

	res, err, _ := group.Do(name, func() (interface{}, error) {
		data, err := fetch(ctx, name)
		if err != nil {
			return nil, err
		}

		mutex.Lock()
		cache[name] = data
		mutex.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return res.([]byte), nil
}

func fetchFromSecretManager(ctx context.Context, name string) ([]byte, error) {
	sm, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	defer sm.Close()

	res, err := sm.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		switch status.Code(err) {
		case codes.NotFound, codes.PermissionDenied:
			return nil, fmt.Errorf("%w: %s: %s", ErrSecretNotFound, name, err)
		default:
			return nil, err
		}
	}

	return res.Payload.GetData(), nil
}

func secretResourceName(projectID, secret, version string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/%s", projectID, secret, version)
}
