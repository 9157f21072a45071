/*
Package controlplane implements the reference control-plane double
spec.md §1 treats only as an external collaborator whose HTTP shape is
specified: POST /api/lock, body {worker_id}, response {items,
resources}. This is one concrete, runnable implementation of that
contract, used by this module's integration tests and usable standalone
for local development — it is not the worker itself and is not bound
by the worker-side non-goal of durable worker state (spec.md §1/§3),
since persistence here is the control plane's own.

Assignment policy is grounded directly on
original_source/.../worker_manager/api/lock.py: up to
maxAssignedItems (default 10) queues per worker, assignments expire
after assignmentCutoff (default 15 minutes) unless refreshed,
unassign-extra-then-refresh-then-backfill order, resources resolved
against internal/staticdefs by the pipeline's declared resource types,
response sorted by resource name.

Storage follows the teacher's pkg/storage bucket-per-kind convention
(one go.etcd.io/bbolt bucket per entity kind, JSON-encoded values) and
the HTTP surface follows the teacher's pkg/api.Server shape (a struct
wrapping a store) with net/http replacing gRPC — grpc itself has no
home here since this module ships one HTTP endpoint, not a 30-method
cluster API (see DESIGN.md for the dropped grpc/protobuf binding).
*/
package controlplane
