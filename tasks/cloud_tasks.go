package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/doitintl/hello/offset-checkout/common"
	"github.com/doitintl/hello/offset-checkout/logger"
)

const (
	// RenderPath is the task endpoint that renders a certificate artifact.
	RenderPath = "/tasks/certificates/artifact"

	serviceAccountEmailFormat = "cloud-tasks@%s.iam.gserviceaccount.com"
	dispatchDeadline          = 10 * time.Minute
)

// RenderTask is the body of a render task.
type RenderTask struct {
	CertificateID string `json:"certificate_id" binding:"required"`
}

type createTaskFunc func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest) (*cloudtaskspb.Task, error)

// CloudTasks enqueues certificate renders on a Cloud Tasks queue.
type CloudTasks struct {
	loggerProvider logger.Provider
	createTask     createTaskFunc
	queue          string
	url            string
	audience       string
	email          string
	now            func() time.Time
}

func NewCloudTasks(log logger.Provider, client *cloudtasks.Client, queue, baseURL string) *CloudTasks {
	return newCloudTasks(log, func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest) (*cloudtaskspb.Task, error) {
		return client.CreateTask(ctx, req)
	}, queue, baseURL)
}

func newCloudTasks(log logger.Provider, createTask createTaskFunc, queue, baseURL string) *CloudTasks {
	return &CloudTasks{
		loggerProvider: log,
		createTask:     createTask,
		queue:          queueResourceName(common.ProjectID, common.Location(), queue),
		url:            baseURL + RenderPath,
		audience:       common.GAEService,
		email:          fmt.Sprintf(serviceAccountEmailFormat, common.ProjectID),
		now:            time.Now,
	}
}

func queueResourceName(projectID, location, queue string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", projectID, location, queue)
}

// TaskName is derived from the certificate id so the queue rejects a second
// render task for the same certificate.
func (q *CloudTasks) TaskName(certificateID string) string {
	return fmt.Sprintf("%s/tasks/render-%s", q.queue, certificateID)
}

// EnqueueRender schedules a render of the certificate after delay. A task
// that already exists for the certificate is not an error.
func (q *CloudTasks) EnqueueRender(ctx context.Context, certificateID string, delay time.Duration) error {
	l := q.loggerProvider(ctx)

	body, err := json.Marshal(RenderTask{CertificateID: certificateID})
	if err != nil {
		return err
	}

	task := &cloudtaskspb.Task{
		Name: q.TaskName(certificateID),
		MessageType: &cloudtaskspb.Task_HttpRequest{
			HttpRequest: &cloudtaskspb.HttpRequest{
				HttpMethod: cloudtaskspb.HttpMethod_POST,
				Url:        q.url,
				Headers:    map[string]string{"Content-Type": "application/json"},
				Body:       body,
				AuthorizationHeader: &cloudtaskspb.HttpRequest_OidcToken{
					OidcToken: &cloudtaskspb.OidcToken{
						ServiceAccountEmail: q.email,
						Audience:            q.audience,
					},
				},
			},
		},
		DispatchDeadline: durationpb.New(dispatchDeadline),
	}

	if delay > 0 {
		task.ScheduleTime = timestamppb.New(q.now().Add(delay))
	}

	_, err = q.createTask(ctx, &cloudtaskspb.CreateTaskRequest{
		Parent: q.queue,
		Task:   task,
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			l.Debugf("render task for certificate %s already queued", certificateID)
			return nil
		}

		return fmt.Errorf("error creating cloud task: %w", err)
	}

	l.Infof("render task for certificate %s queued", certificateID)

	return nil
}

// Noop drops render tasks. Certificates are then rendered on demand only.
type Noop struct {
	loggerProvider logger.Provider
}

func NewNoop(log logger.Provider) *Noop {
	return &Noop{loggerProvider: log}
}

func (q *Noop) EnqueueRender(ctx context.Context, certificateID string, _ time.Duration) error {
	q.loggerProvider(ctx).Debugf("render queue disabled, certificate %s renders on demand", certificateID)
	return nil
}
