// Package health checks whether backends are usable.
//
// A Checker runs named checks concurrently with a per-check timeout and
// aggregates them into a Report. ProviderCheck builds a backend from the
// configuration store, so a missing API key shows up as "unconfigured"
// without any network traffic. Live checks additionally send a one-token
// probe completion:
//
//	checker := health.New(30 * time.Second)
//	health.RegisterProviders(checker, nil, store, false)
//	report := checker.Run(ctx)
//	for _, name := range report.Names() {
//	    fmt.Println(name, report.Checks[name].Status)
//	}
package health
