// Package refresh keeps definitions for a set of named sources warm in
// a shared cache store.
//
// A Refresher fetches every source on a fixed interval, spreading the
// fetches across a bounded worker pool. Conditional requests keep the
// cycles cheap: an unchanged source answers 304 and costs no payload
// transfer. The upstream backoff tracker gates every cycle, so a
// failing upstream is polled less aggressively and suspended entirely
// once it keeps failing.
//
// Example usage:
//
//	sources := []refresh.Source{{Name: "production", Config: client.DefaultConfig(url)}}
//	refresher := refresh.NewRefresher(sources, refresh.DefaultConfig())
//	go refresher.Run(ctx)
//
// The refresher:
//   - Runs the first cycle immediately, then one per interval tick
//   - Distributes sources across the worker pool
//   - Records success and failure with the backoff tracker
//   - Tolerates partial failure: one failing source never blocks the rest
package refresh
