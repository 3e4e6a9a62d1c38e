package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doitintl/hello/offset-checkout/logger"
)

func TestCloudTasks_EnqueueRender(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	var got *cloudtaskspb.CreateTaskRequest

	q := newCloudTasks(logger.FromContext, func(_ context.Context, req *cloudtaskspb.CreateTaskRequest) (*cloudtaskspb.Task, error) {
		got = req
		return req.Task, nil
	}, "certificate-artifacts", "https://api.example.com")
	q.now = func() time.Time { return now }

	err := q.EnqueueRender(context.Background(), "cert-1", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, q.queue, got.Parent)
	assert.Equal(t, q.queue+"/tasks/render-cert-1", got.Task.Name)
	assert.Equal(t, now.Add(5*time.Second), got.Task.ScheduleTime.AsTime())

	req := got.Task.GetHttpRequest()
	assert.Equal(t, "https://api.example.com"+RenderPath, req.Url)
	assert.Equal(t, cloudtaskspb.HttpMethod_POST, req.HttpMethod)
	assert.NotEmpty(t, req.GetOidcToken().ServiceAccountEmail)

	var body RenderTask
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, "cert-1", body.CertificateID)
}

func TestCloudTasks_EnqueueRenderErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "already queued", err: status.Error(codes.AlreadyExists, "task exists")},
		{name: "queue unavailable", err: status.Error(codes.Unavailable, "try again"), wantErr: true},
		{name: "other", err: errors.New("boom"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := newCloudTasks(logger.FromContext, func(context.Context, *cloudtaskspb.CreateTaskRequest) (*cloudtaskspb.Task, error) {
				return nil, tt.err
			}, "q", "https://api.example.com")

			err := q.EnqueueRender(context.Background(), "cert-1", 0)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoop_EnqueueRender(t *testing.T) {
	assert.NoError(t, NewNoop(logger.FromContext).EnqueueRender(context.Background(), "cert-1", time.Second))
}
