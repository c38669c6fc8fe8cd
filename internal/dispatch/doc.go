// Package dispatch drives cache-miss translation units through a backend.
//
// A fixed pool of workers pulls WorkItems from a queue built once from the
// deduplicated work set, so every unit is translated at most once per run.
// Calls are bounded by a token-bucket rate limit and a shared cooldown that
// honors server supplied retry delays. Transient failures are retried with
// exponential backoff and jitter; each WorkItem moves through an explicit
// state machine:
//
//	Pending -> InFlight -> Succeeded
//	                    -> RetryScheduled -> InFlight ...
//	                    -> Failed
//	Pending, RetryScheduled -> Cancelled (run cancelled)
package dispatch
