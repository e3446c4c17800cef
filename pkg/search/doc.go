// Package search runs typed queries against providers and installed apps.
//
// # Overview
//
// Every keystroke in the search box ends up here. The text is routed with
// query.Parse against the registry's current prefix index and then either
// handed to a provider or sent down the default path, where URL detection
// (weburl.Validate) and app ranking (ranking.Filter) run concurrently.
//
// # Components
//
//   - Dispatcher: stateless. Runs a single parsed query to completion and
//     turns provider failures and panics into empty result lists.
//   - Session: stateful. Owns the current query text, starts a new
//     generation on every change and publishes State snapshots to
//     subscribers.
//
// # Generations
//
// Each query change increments the session generation and cancels the
// context of the previous one. A search that completes publishes only if its
// generation is still current, checked under the session mutex. A slow or hung
// provider therefore never overwrites results for newer text, and published
// states always follow generation order.
//
// # Usage
//
//	d := search.NewDispatcher(registry, apps, search.Options{MaxAppResults: 8})
//	s := search.NewSession(d, search.Options{})
//	states, cancel := s.Subscribe()
//	defer cancel()
//
//	s.Open(ctx)
//	s.OnQueryChanged("c ali")
//	for st := range states {
//		// render st.Results
//	}
//
// One-shot searches without a session use Dispatcher.Search directly.
package search
