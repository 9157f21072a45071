/*
Package executor implements the ExecutorManager of spec.md §4.5: a
bounded pool of workers draining a single hand-off channel of capacity
1. The capacity-1 channel is deliberate — it is the single point where
end-to-end backpressure becomes visible: once every worker and the one
hand-off slot are full, Submit blocks, which in turn leaves XMsgs
un-drained in the Scheduler.

Submit follows the two-path protocol from the source implementation's
worker/executors/__init__.py almost exactly:

  - Fast path: try to acquire the XMsg's resources without waiting; on
    success, push onto the hand-off channel.
  - Slow path: park the XMsg's source queue, then acquire resources in
    the background (waiting this time); once acquired, unpark and push
    onto the hand-off channel.

Each worker, per XMsg: runs the Executor, records resources_used against
the lease, and spawns an independent output-consumption task so a slow
topic on one XMsg never blocks another XMsg's worker. Per spec.md §9's
resolved open question, those output tasks are bounded by a semaphore
of a fixed 32 slots (defaultOutputConcurrency) rather than spawned
without limit.

Grounded on original_source's worker/executors/__init__.py for the
submit/acquire/consume_output control flow, and on the teacher's
worker.go and the pack's generic worker-pool files (other_examples/)
for the bounded-pool/worker-loop idiom in Go.
*/
package executor
