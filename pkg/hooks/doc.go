/*
Package hooks implements the observer-list pattern spec.md §9 calls for:
a small set of named hook sites (polled, scheduled, submitted, executed,
published) around which interested observers can be registered. Hooks
are invoked synchronously at the hook site, in registration order; an
observer's error never aborts the caller — it is instead delivered on a
dedicated Failures channel, mirroring the "hook_failed" channel named in
spec.md.

No library in the example pack implements this exact synchronous,
never-abort observer pattern (the closest are the teacher's events.Broker
and the generic pub/sub files in the retrieval pack, both of which are
asynchronous fan-out — the wrong shape for a hook that must run before
its caller proceeds). This package is therefore hand-rolled on top of
the standard library, the one ambient concern in this module without a
third-party grounding; see DESIGN.md.
*/
package hooks
