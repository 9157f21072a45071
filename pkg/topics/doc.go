/*
Package topics provides concrete pkg/topic.Topic implementations.
Channel is an in-memory buffered channel for tests and in-process
wiring; HTTP posts each message as JSON to a configured URL, declining
on any non-2xx response or a publish(wait=false) timeout and retrying
with backoff when called with wait=true.

AMQP is named in original_source's config (SATURN_WORKER__QUEUE_CLS
lists a RabbitMQ-backed transport), but internal/config carries no
AMQP setting and no AMQP topic ships here: the pack's example repos import
no AMQP/RabbitMQ client in any go.mod, so an AMQP implementation would
be fabricated rather than learned from the corpus.
*/
package topics
