//go:build gcloud

package push

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	taskspb "cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/domain"
)

type Config struct {
	ProjectID  string
	LocationID string
	QueueID    string
	TargetURL  string
	Timeout    time.Duration
}

// CloudTasksClient hands each push to a Cloud Tasks queue whose target
// performs the provider call. Task names are derived from the handle and
// token so a repeated enqueue is rejected by the queue.
type CloudTasksClient struct {
	client     *cloudtasks.Client
	projectID  string
	locationID string
	queueID    string
	targetURL  string
}

type pushTask struct {
	Token string            `json:"token"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

func NewTransport(ctx context.Context, cfg Config) (domain.PushTransport, func() error, error) {
	client, err := NewCloudTasksClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("push transport initialized",
		slog.String("type", "cloud_tasks"),
		slog.String("project", cfg.ProjectID),
		slog.String("location", cfg.LocationID),
		slog.String("queue", cfg.QueueID),
	)

	cleanup := func() error {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close cloud tasks client", slog.String("error", err.Error()))
			return err
		}
		return nil
	}
	return client, cleanup, nil
}

func NewCloudTasksClient(ctx context.Context, cfg Config) (*CloudTasksClient, error) {
	if cfg.TargetURL == "" {
		return nil, ErrMissingEndpoint
	}

	client, err := cloudtasks.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud tasks client: %w", err)
	}

	return &CloudTasksClient{
		client:     client,
		projectID:  cfg.ProjectID,
		locationID: cfg.LocationID,
		queueID:    cfg.QueueID,
		targetURL:  cfg.TargetURL,
	}, nil
}

func (c *CloudTasksClient) Send(ctx context.Context, msg domain.PushMessage) error {
	queuePath := fmt.Sprintf("projects/%s/locations/%s/queues/%s",
		c.projectID, c.locationID, c.queueID)

	payload, err := json.Marshal(pushTask{
		Token: msg.Token,
		Title: msg.Title,
		Body:  msg.Body,
		Data:  msg.Data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push task: %w", err)
	}

	handle := msg.Data["handle"]
	req := &taskspb.CreateTaskRequest{
		Parent: queuePath,
		Task: &taskspb.Task{
			Name: fmt.Sprintf("%s/tasks/%s", queuePath, taskID(handle, msg.Token)),
			MessageType: &taskspb.Task_HttpRequest{
				HttpRequest: &taskspb.HttpRequest{
					HttpMethod: taskspb.HttpMethod_POST,
					Url:        c.targetURL,
					Headers: map[string]string{
						"Content-Type": "application/json",
					},
					Body: payload,
				},
			},
			ScheduleTime: timestamppb.Now(),
		},
	}

	created, err := c.client.CreateTask(ctx, req)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			slog.InfoContext(ctx, "push task already enqueued",
				slog.String("handle", handle),
			)
			return nil
		}
		slog.WarnContext(ctx, "failed to create push task",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create push task: %w", err)
	}

	slog.DebugContext(ctx, "push task enqueued",
		slog.String("task_name", created.Name),
		slog.String("handle", handle),
	)
	return nil
}

func (c *CloudTasksClient) Close() error {
	return c.client.Close()
}

// taskID is stable for a handle/token pair and uses only characters Cloud
// Tasks accepts in task ids.
func taskID(handle, token string) string {
	sum := sha256.Sum256([]byte(token))
	return handle + "-" + hex.EncodeToString(sum[:8])
}
