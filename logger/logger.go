package logger

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/logging"
	"github.com/gin-gonic/gin"
	"google.golang.org/genproto/googleapis/api/monitoredres"

	"github.com/doitintl/hello/offset-checkout/common"
)

const (
	// CtxLoggerKey is how request values or stored/retrieved.
	CtxLoggerKey = "app-logger"

	// CtxDetailedLoggerKey is how request values or stored/retrieved.
	CtxDetailedLoggerKey = "app-_detailed-logger"

	// parentLogID is the name of the log file for request summaries.
	parentLogID = "checkout_requests"

	// childLogID is the name of the log file for entries written during a request.
	childLogID = "checkout_entries"

	// labels keys for monitored resource definition
	moduleIDField  = "module_id"
	projectIDField = "project_id"
	versionIDField = "version_id"

	appEngineType = "gae_app"

	gcpLogging = "GCP_LOGGING"
)

var (
	client       *logging.Client
	parentLogger *logging.Logger
	childLogger  *logging.Logger
	resource     *monitoredres.MonitoredResource
	cloudLogging bool
)

type Provider func(ctx context.Context) ILogger

type Logging struct {
}

// NewLogging initializes the google cloud logging clients.
// Cloud logging is off on localhost unless GCP_LOGGING=true.
func NewLogging(ctx context.Context) (*Logging, error) {
	var err error

	cloudLogging, err = strconv.ParseBool(common.GetEnv(gcpLogging, strconv.FormatBool(!common.IsLocalhost)))
	if err != nil {
		return nil, err
	}

	resource = &monitoredres.MonitoredResource{
		Labels: map[string]string{
			moduleIDField:  common.GAEService,
			projectIDField: common.ProjectID,
			versionIDField: common.GAEVersion,
		},
		Type: appEngineType,
	}

	if !cloudLogging {
		return &Logging{}, nil
	}

	client, err = logging.NewClient(ctx, common.ProjectID)
	if err != nil {
		return nil, err
	}

	parentLogger = client.Logger(parentLogID)
	childLogger = client.Logger(childLogID)

	return &Logging{}, nil
}

// Logger returns the logger that was stored inside the context.
func (l *Logging) Logger(ctx context.Context) ILogger {
	return FromContext(ctx)
}

// Close flushes buffered entries.
func (l *Logging) Close() error {
	if client == nil {
		return nil
	}

	return client.Close()
}

// NewLogger sets gin.Context with a new logger, with the related google trace id.
func NewLogger(ctx *gin.Context) (*Logger, error) {
	l := newDefaultLogger()
	d := &DetailedLogger{Logger: l}

	var h string
	if ctx.Request != nil {
		h = ctx.Request.Header.Get("X-Cloud-Trace-Context")
	}

	if h != "" {
		if i := strings.IndexByte(h, '/'); i > 0 {
			if t := h[:i]; strings.Count(t, "0") != len(t) {
				l.trace = getTrace(l.started, t)
			}
		}
	}

	ctx.Set(CtxLoggerKey, l)
	ctx.Set(CtxDetailedLoggerKey, d)

	return l, nil
}

// FromContext returns the logger that was stored in context.
// If there isn't logger stored, returns a new logger.
func FromContext(ctx context.Context) ILogger {
	if ctx != nil {
		if l, ok := ctx.Value(CtxLoggerKey).(*Logger); ok {
			return l
		}
	}

	return newDefaultLogger()
}

// ContextWithLogger stores l in a plain context, for work that runs outside a request.
func ContextWithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, CtxLoggerKey, l) //nolint:staticcheck
}

// NewBackgroundLogger returns a logger for jobs that are not tied to an http request.
func NewBackgroundLogger(labels map[string]string) *Logger {
	l := newDefaultLogger()
	l.SetLabels(labels)

	return l
}

func getTrace(started time.Time, id string) string {
	return fmt.Sprintf("projects/%s/traces/%d%s", common.ProjectID, started.UnixNano(), id)
}
