/*
Package broker implements the Broker of spec.md §4.1: it owns the
Scheduler, ExecutorManager, WorkManager, TaskManager, and
ResourcesManager (together with hooks, logging, and metrics — the
"ServicesManager" of spec.md), and runs three concurrent loops for the
lifetime of Run: the queue loop (Scheduler → ExecutorManager), the sync
loop (WorkManager → mutations applied to Scheduler/TaskManager/
ResourcesManager), and the TaskManager's own supervised background
tasks.

Run returns when its context is cancelled or a fatal error escapes one
of the three loops (spec.md §7 kind 5); Stop triggers the same
shutdown from any goroutine, idempotently, closing components in
reverse dependency order: Scheduler, TaskManager, Services (hooks have
nothing to close; nothing else to tear down), Executor.

Grounded on the teacher's pkg/worker and pkg/reconciler top-level
lifecycle shape (a struct owning subsystems, Start/Stop, a
context-cancel + WaitGroup drain on shutdown) re-purposed from
container scheduling to Saturn's pipeline execution loop.
*/
package broker
