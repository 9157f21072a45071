/*
Package queues provides concrete pkg/queue.Queue implementations beyond
the in-module MemQueue, plus a Registry resolving one by the Name a
types.InputSpec carries — the same string-keyed-factory shape as
pkg/executors and pkg/topics, per spec.md §9's registry design note.

HTTP polls a configured URL for the next message, mirroring
pkg/topics.HTTP's client shape (short timeout, JSON body) on the
consume side instead of the publish side: original_source names no
concrete inventory source in the retrieved files, so this is grounded
directly on spec.md §3's InputSpec contract and on the teacher's
polling idiom (a blocking client call inside Poll, ctx-cancellable).
*/
package queues
