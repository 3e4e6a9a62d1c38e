package secretmanager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/common"
)

func stubFetch(t *testing.T, f fetchFunc) {
	t.Helper()

	prev := fetch
	fetch = f

	t.Cleanup(func() {
		fetch = prev

		mutex.Lock()
		cache = make(map[string][]byte)
		mutex.Unlock()
	})
}

func TestSecretResourceName(t *testing.T) {
	assert.Equal(t,
		"projects/p1/secrets/stripe-checkout/versions/latest",
		secretResourceName("p1", string(SecretStripe), latestVersion),
	)
}

func TestAccessSecretVersion_Cached(t *testing.T) {
	var calls int32

	stubFetch(t, func(_ context.Context, name string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, secretResourceName(common.ProjectID, "cached", "3"), name)

		return []byte("payload"), nil
	})

	for i := 0; i < 3; i++ {
		data, err := AccessSecretVersion(context.Background(), "cached", "3")
		require.NoError(t, err)
		assert.Equal(t, []byte("payload"), data)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAccessSecretVersion_ConcurrentReadsShareOneFetch(t *testing.T) {
	var calls int32

	release := make(chan struct{})

	stubFetch(t, func(context.Context, string) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		<-release

		return []byte("{}"), nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := AccessSecretLatestVersion(context.Background(), SecretGoogleDrive)
			assert.NoError(t, err)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAccessSecretVersion_ErrorsAreNotCached(t *testing.T) {
	fail := true

	stubFetch(t, func(context.Context, string) ([]byte, error) {
		if fail {
			return nil, ErrSecretNotFound
		}

		return []byte("ok"), nil
	})

	_, err := AccessSecretLatestVersion(context.Background(), SecretStripe)
	assert.True(t, errors.Is(err, ErrSecretNotFound))

	fail = false

	data, err := AccessSecretLatestVersion(context.Background(), SecretStripe)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), data)
}
