/*
Package queue defines the Queue and ExecutableMessage (XMsg) abstractions
the Scheduler multiplexes over.

A Queue is a polymorphic, possibly-suspended producer of XMsgs: Poll
yields the next one (and may block), Park/Unpark suspend and resume its
participation in scheduling, and Close releases whatever it owns. Park
is reference-counted and idempotent — N calls to Park require N calls to
Unpark before the queue becomes eligible for polling again.

An XMsg is a PipelineMessage in flight: it carries a back-reference to
its source Queue (so any subsystem downstream of the Scheduler can park
and unpark it), an output routing table, and a resource scope populated
by the ExecutorManager once resources are acquired. Exactly one XMsg per
(queue, message id) is in flight in the Scheduler at a time.
*/
package queue
