/*
Package types defines the core data structures shared by every broker
subsystem in Saturn: the messages flowing through queues, the pipeline
metadata attached to them, the resources a pipeline declares it needs,
and the wire shapes exchanged with the control plane during a sync.

These types carry no behavior of their own — they are plain data,
JSON-serializable for the control-plane API and YAML-serializable for
static resource definitions. Behavior (scheduling, leasing, dispatch)
lives in the packages that consume these types: pkg/queue, pkg/resources,
pkg/scheduler, pkg/executor, pkg/workmanager.

# Core Types

Message flow:
  - Message: an opaque payload with an id, tags and args, immutable once
    emitted by a Queue.
  - PipelineMessage: a Message bound to a named pipeline and its declared
    resource requirement types, with the subset still unmet tracked in
    MissingResources.
  - PipelineOutput / PipelineResult: what an Executor returns after
    processing a PipelineMessage — outputs to route to downstream topics
    and a record of which resources it actually consumed.

Resources:
  - Resource: a named instance of a resource type (e.g. a specific API
    key, a database connection slot), optionally carrying a cooldown.
  - ResourceUsed: what an Executor reports having consumed, used to set
    a lease's cooldown after the fact.

Control-plane wire shapes:
  - QueueItem: one assigned queue (name, input spec, pipeline, output
    routing table).
  - LockRequest / LockResponse: the request/response pair for the
    control plane's assignment sync (POST /api/lock).
*/
package types
