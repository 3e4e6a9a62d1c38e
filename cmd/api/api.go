package api

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/doitintl/hello/offset-checkout/certificates/dal"
	certHandlers "github.com/doitintl/hello/offset-checkout/certificates/handlers"
	certIface "github.com/doitintl/hello/offset-checkout/certificates/iface"
	certService "github.com/doitintl/hello/offset-checkout/certificates/service"
	"github.com/doitintl/hello/offset-checkout/certificates/storage"
	"github.com/doitintl/hello/offset-checkout/common"
	"github.com/doitintl/hello/offset-checkout/errorreporting"
	"github.com/doitintl/hello/offset-checkout/framework/connection"
	"github.com/doitintl/hello/offset-checkout/framework/mid"
	"github.com/doitintl/hello/offset-checkout/framework/web"
	"github.com/doitintl/hello/offset-checkout/logger"
	paymentDal "github.com/doitintl/hello/offset-checkout/payments/dal"
	paymentHandlers "github.com/doitintl/hello/offset-checkout/payments/handlers"
	paymentService "github.com/doitintl/hello/offset-checkout/payments/service"
	"github.com/doitintl/hello/offset-checkout/pdftemplategenerator"
	"github.com/doitintl/hello/offset-checkout/reconciler"
	stripeService "github.com/doitintl/hello/offset-checkout/stripe/service"
	"github.com/doitintl/hello/offset-checkout/tasks"
)

// API constructs an api with the needed functionality.
type API struct {
	shutdown chan os.Signal
	log      *logger.Logging
	conn     *connection.Connection
	cfg      *common.Config
	reporter errorreporting.Reporter
}

func NewAPI(shutdown chan os.Signal, logging *logger.Logging, conn *connection.Connection, cfg *common.Config, reporter errorreporting.Reporter) *API {
	return &API{
		shutdown,
		logging,
		conn,
		cfg,
		reporter,
	}
}

type stores struct {
	intents      paymentDal.PaymentIntents
	certificates dal.Store
}

func (a *API) stores(ctx context.Context) (*stores, error) {
	switch a.cfg.StoreBackend {
	case common.StoreBackendFirestore:
		return &stores{
			intents:      paymentDal.NewPaymentIntentsFirestoreWithClient(a.conn.Firestore),
			certificates: dal.NewStoreFirestoreWithClient(a.conn.Firestore),
		}, nil
	case common.StoreBackendPostgres:
		intents := paymentDal.NewPaymentIntentsPostgres(a.conn.DB())
		if err := intents.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("payment intents schema: %w", err)
		}

		certificates := dal.NewStorePostgres(a.conn.DB())
		if err := certificates.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("certificates schema: %w", err)
		}

		return &stores{intents: intents, certificates: certificates}, nil
	default:
		return &stores{
			intents:      paymentDal.NewPaymentIntentsMemory(),
			certificates: dal.NewStoreMemory(),
		}, nil
	}
}

func (a *API) artifactStorage(ctx context.Context) (certIface.ArtifactStorage, error) {
	switch {
	case common.IsLocalhost && a.cfg.StoreBackend == common.StoreBackendMemory:
		return storage.NewMemory(), nil
	case a.cfg.ArtifactStorage == common.ArtifactStorageS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket: a.cfg.ArtifactBucket,
			Region: a.cfg.AWSRegion,
		})
	default:
		return storage.NewGCSStorage(a.conn.CloudStorage(ctx), a.cfg.ArtifactBucket), nil
	}
}

func (a *API) renderQueue(loggerProvider logger.Provider) certIface.RenderQueue {
	if a.conn.CloudTaskClient == nil {
		return tasks.NewNoop(loggerProvider)
	}

	return tasks.NewCloudTasks(loggerProvider, a.conn.CloudTaskClient, a.cfg.TasksQueue, a.cfg.TasksBaseURL)
}

// Build builds the api endpoints with the needed middlewares, and returns http.Handler interface.
func (a *API) Build(ctx context.Context) (http.Handler, error) {
	loggerProvider := logger.FromContext
	l := a.log.Logger(ctx)

	s, err := a.stores(ctx)
	if err != nil {
		return nil, err
	}

	artifactStorage, err := a.artifactStorage(ctx)
	if err != nil {
		return nil, err
	}

	// A missing key only disables payments, the certificate endpoints keep working.
	stripeClient, err := stripeService.NewStripeClient(ctx, a.cfg.StripeTimeout)
	if err != nil {
		l.Warningf("stripe is not configured: %s", err)
	}

	processor := stripeService.NewStripeProcessor(stripeClient)

	var drive pdftemplategenerator.Drive

	if a.cfg.CertificateTemplateDocID != "" || a.cfg.DonationTemplateDocID != "" {
		drive, err = pdftemplategenerator.NewGoogleDrive(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		l.Warningf("no certificate templates configured, artifacts cannot be rendered")
	}

	renderer := pdftemplategenerator.NewService(
		loggerProvider,
		drive,
		a.cfg.CertificateTemplateDocID,
		a.cfg.DonationTemplateDocID,
		a.cfg.DriveFolderID,
	)

	issuance := certService.NewIssuanceService(loggerProvider, s.certificates, s.certificates)
	artifacts := certService.NewArtifactService(loggerProvider, s.certificates, renderer, artifactStorage, a.cfg.RenderTimeout)
	verification := certService.NewVerificationService(loggerProvider, s.certificates)

	// Reconciliation logs carry the caller file:line.
	r := reconciler.NewReconciler(logger.DetailedLoggerFromContext, s.intents, s.certificates, s.certificates, issuance, a.renderQueue(loggerProvider))

	payments := paymentHandlers.NewPayments(
		loggerProvider,
		paymentService.NewGatewayService(loggerProvider, s.intents, processor),
		paymentService.NewConfirmService(loggerProvider, processor, r),
		paymentService.NewWebhookService(loggerProvider, processor, r),
	)
	certificates := certHandlers.NewCertificates(loggerProvider, issuance, artifacts, verification)

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(a.shutdown, a.conn, mid.Logger(), mid.Errors(), mid.ReportErrors(a.reporter), mid.Panics(), mid.Sentry())

	registerRoutes(app, payments, certificates, routeAuth{
		tasks: mid.AuthServiceAccount(mid.GetAllowedCloudTasksEmails()),
		admin: mid.AuthServiceAccount(mid.GetAllowedAdminEmails(a.cfg.AdminServiceAccounts)),
	})

	return app, nil
}
