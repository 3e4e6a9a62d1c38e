package errorreporting

import (
	"context"
	"net/http"

	"cloud.google.com/go/errorreporting"

	"github.com/doitintl/hello/offset-checkout/common"
)

type Metadata struct {
	Req   *http.Request
	User  string
	Stack []byte
}

// Reporter sends unexpected errors to an external error tracker.
type Reporter interface {
	Report(err error, md *Metadata)
	Close() error
}

type cloudReporter struct {
	client *errorreporting.Client
}

type noopReporter struct{}

// NewReporter returns a Cloud Error Reporting client, or a reporter that drops
// everything when running locally.
func NewReporter(ctx context.Context) (Reporter, error) {
	if common.IsLocalhost {
		return NewNoop(), nil
	}

	client, err := errorreporting.NewClient(ctx, common.ProjectID, errorreporting.Config{
		ServiceName:    common.GAEService,
		ServiceVersion: common.GAEVersion,
	})
	if err != nil {
		return nil, err
	}

	return &cloudReporter{client: client}, nil
}

func NewNoop() Reporter {
	return noopReporter{}
}

func (r *cloudReporter) Report(err error, md *Metadata) {
	if err == nil {
		return
	}

	e := errorreporting.Entry{
		Error: err,
	}

	if md != nil {
		e.User = md.User
		e.Req = md.Req
		e.Stack = md.Stack
	}

	r.client.Report(e)
}

func (r *cloudReporter) Close() error {
	return r.client.Close()
}

func (noopReporter) Report(error, *Metadata) {}

func (noopReporter) Close() error { return nil }
