// Package preflight implements the checks behind `quarry doctor`:
// disk space and write access for the sidecar tree, embedding model
// and backend health, and the state of the index itself.
//
// Each check reports pass, warn, or fail. Only a required check that
// fails counts as critical; warnings describe conditions quarry
// tolerates, like a missing index or an offline embedding backend.
//
//	checker := preflight.New(preflight.WithModel(cfg.Embedding.Model))
//	results := checker.RunAll(ctx, root)
//	if checker.HasCriticalFailures(results) {
//	    os.Exit(2)
//	}
package preflight
