/*
Package executors provides a string-keyed registry of pkg/executor.Executor
implementations, the Go expression of spec.md §9's "registry keyed by
string name populated at startup": internal/config names an executor by
a string (the default, "ProcessExecutor", mirrors original_source's
default for SATURN_WORKER__EXECUTOR_CLS; the Broker normalizes it to the
registry key "process") and a Broker resolves it from Registry at
startup rather than switching on a type.

Noop is stdlib-only, for tests and local development without a real
pipeline runtime. Process runs a pipeline invocation as a subprocess via
os/exec, the default. Containerd adapts the teacher's
pkg/runtime.ContainerdRuntime pull/create/start/status/delete lifecycle
to run one pipeline invocation as a short-lived container.
*/
package executors
