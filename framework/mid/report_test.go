package mid

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doitintl/hello/offset-checkout/apperrors"
	"github.com/doitintl/hello/offset-checkout/errorreporting"
	"github.com/doitintl/hello/offset-checkout/framework/web"
)

type recordingReporter struct {
	errs []error
	mds  []*errorreporting.Metadata
}

func (r *recordingReporter) Report(err error, md *errorreporting.Metadata) {
	r.errs = append(r.errs, err)
	r.mds = append(r.mds, md)
}

func (r *recordingReporter) Close() error { return nil }

func TestReportErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		reported   bool
	}{
		{name: "success", wantStatus: http.StatusOK},
		{name: "validation", err: apperrors.Validation("bad input"), wantStatus: http.StatusBadRequest},
		{name: "not found", err: apperrors.NotFound("certificate"), wantStatus: http.StatusNotFound},
		{name: "upstream", err: apperrors.Upstream(errors.New("stripe timeout")), wantStatus: http.StatusBadGateway, reported: true},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, reported: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recordingReporter{}

			app := web.NewTestApp(Errors(), ReportErrors(r))
			app.Get("/x", func(ctx *gin.Context) error {
				if tt.err != nil {
					return tt.err
				}

				return web.Respond(ctx, nil, http.StatusOK)
			})

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Equal(t, tt.wantStatus, w.Code)

			if tt.reported {
				assert.Equal(t, []error{tt.err}, r.errs)
				assert.Equal(t, "/x", r.mds[0].Req.URL.Path)
			} else {
				assert.Empty(t, r.errs)
			}
		})
	}
}

func TestReportErrors_Panic(t *testing.T) {
	r := &recordingReporter{}

	app := web.NewTestApp(Errors(), ReportErrors(r), Panics())
	app.Get("/boom", func(ctx *gin.Context) error {
		panic("boom")
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, r.errs, 1)

	var pe *PanicError
	require.ErrorAs(t, r.errs[0], &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, r.mds[0].Stack)
}
