// Package resilience retries operations that fail transiently, such as a
// connector dialing a backend that is still starting.
//
//	store, err := resilience.Retry(ctx, resilience.Policy{Attempts: 3}, func(ctx context.Context) (Store, error) {
//	    return dial(ctx)
//	})
package resilience
