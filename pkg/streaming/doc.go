/*
Package streaming groups the pieces of a simulated stream pipeline.

  - event: what a pipeline reports (Created, ValueChanged, StageAdvanced, Rejected)
  - channel: bounded multi-producer queue whose full buffer blocks senders
  - stage: pull-based stage policies sharing a concurrency limiter per bounded stage
  - pipeline: builder that wires stages together and a driver that pulls the sink

Stages are lazy: the driver pulls the sink, the sink pulls its upstream and
so on back to the source. Work only starts when a downstream asks for it,
and a consumer that stops reading events eventually stalls every stage.
*/
package streaming
