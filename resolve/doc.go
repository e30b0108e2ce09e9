// Package resolve picks a setting from an ordered list of candidate sources.
//
// A Chain names where a value may come from, highest precedence first:
//
//	chain := resolve.From(env, "PORT").
//	    Then(resolve.Candidate{Source: cfg.Settings(), Key: "port"}).
//	    Then(resolve.Default(3000))
//	res, ok := chain.Resolve(resolve.Present)
//
// The Resolution reports both the value and the source that supplied it so
// callers can log where each setting came from. Present and Truthy are the
// two presence rules: Present accepts any non-nil value, Truthy also rejects
// empty strings, zero numbers and false.
package resolve
