/*
Package workmanager implements the WorkManager of spec.md §4.2: it
periodically calls the control plane's POST /api/lock, diffs the
returned working set against what this worker already has keyed by
name, and emits a WorkSync describing what to add and drop across
queues, tasks, and resources.

Apply order is the spec's, not the source's: adds before drops for
resources (so in-flight work can rebind to a refreshed lease before
the old one disappears), drops before adds for queues and tasks (so a
name can be reused within the same sync without colliding with the
assignment it replaces).

Grounded on original_source's worker_manager/api/lock.py for the
response shape and on worker/broker.py's run_worker_manager for the
sync-then-apply loop, re-expressed with net/http instead of an async
Flask/aiohttp round trip.
*/
package workmanager
