package executors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"
	"github.com/google/uuid"

	"github.com/saturn-sh/saturn/pkg/types"
)

const (
	containerdDefaultNamespace  = "saturn"
	containerdDefaultSocket     = "/run/containerd/containerd.sock"
	containerdDefaultStopWindow = 10 * time.Second
)

// Containerd runs one pipeline invocation per message as a short-lived
// container: the message is handed to the container as a JSON
// environment variable, and the container's stdout is parsed as a
// PipelineResult. Adapted from the teacher's
// pkg/runtime.ContainerdRuntime pull/create/start/status/delete
// lifecycle, the heaviest domain dependency in the pack given a real
// home in Saturn's executor layer.
type Containerd struct {
	client    *containerd.Client
	namespace string
	image     string
}

// NewContainerd connects to the containerd socket named by
// options["socket"] (default containerdDefaultSocket) and prepares to
// run options["image"] (required) for every message.
func NewContainerd(options map[string]string) (*Containerd, error) {
	image := options["image"]
	if image == "" {
		return nil, fmt.Errorf("executors: containerd executor requires an \"image\" option")
	}

	socket := options["socket"]
	if socket == "" {
		socket = containerdDefaultSocket
	}

	client, err := containerd.New(socket)
	if err != nil {
		return nil, fmt.Errorf("executors: connect to containerd at %s: %w", socket, err)
	}

	namespace := options["namespace"]
	if namespace == "" {
		namespace = containerdDefaultNamespace
	}

	return &Containerd{client: client, namespace: namespace, image: image}, nil
}

// ProcessMessage pulls (if needed) the configured image, runs it with
// the message JSON in SATURN_MESSAGE, waits for it to exit, and parses
// its stdout as a PipelineResult. The container and its snapshot are
// always deleted before returning.
func (c *Containerd) ProcessMessage(ctx context.Context, msg types.PipelineMessage) (types.PipelineResult, error) {
	ctx = namespaces.WithNamespace(ctx, c.namespace)

	payload, err := json.Marshal(msg)
	if err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: encode message: %w", err)
	}

	image, err := c.client.GetImage(ctx, c.image)
	if err != nil {
		image, err = c.client.Pull(ctx, c.image, containerd.WithPullUnpack)
		if err != nil {
			return types.PipelineResult{}, fmt.Errorf("executors: pull image %s: %w", c.image, err)
		}
	}

	id := "saturn-" + uuid.NewString()
	container, err := c.client.NewContainer(
		ctx,
		id,
		containerd.WithImage(image),
		containerd.WithNewSnapshot(id+"-snapshot", image),
		containerd.WithNewSpec(
			oci.WithImageConfig(image),
			oci.WithEnv([]string{"SATURN_MESSAGE=" + string(payload)}),
		),
	)
	if err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: create container: %w", err)
	}
	defer c.destroy(container)

	var stdout, stderr bytes.Buffer
	task, err := container.NewTask(ctx, cio.NewCreator(cio.WithStreams(nil, &stdout, &stderr)))
	if err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: create task: %w", err)
	}
	defer func() { _, _ = task.Delete(ctx) }()

	statusC, err := task.Wait(ctx)
	if err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: wait on task: %w", err)
	}
	if err := task.Start(ctx); err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: start task: %w", err)
	}

	select {
	case status := <-statusC:
		if status.ExitCode() != 0 {
			return types.PipelineResult{}, fmt.Errorf("executors: container exited %d (stderr: %s)", status.ExitCode(), stderr.String())
		}
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), containerdDefaultStopWindow)
		defer cancel()
		_, _ = task.Delete(namespaces.WithNamespace(stopCtx, c.namespace), containerd.WithProcessKill)
		return types.PipelineResult{}, ctx.Err()
	}

	var result types.PipelineResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		return types.PipelineResult{}, fmt.Errorf("executors: decode pipeline result: %w", err)
	}
	return result, nil
}

func (c *Containerd) destroy(container containerd.Container) {
	ctx := namespaces.WithNamespace(context.Background(), c.namespace)
	_ = container.Delete(ctx, containerd.WithSnapshotCleanup)
}

// Close closes the containerd client connection.
func (c *Containerd) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
