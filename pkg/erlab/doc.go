// Package erlab provides Bayesian exposure-response analysis: logistic,
// Emax, and linear dose-response models fit by adaptive Markov chain Monte
// Carlo, with posterior prediction, covariate effects, and PSIS-LOO model
// comparison.
//
// Quick start:
//
//	d, err := erlab.ReadCSV("study.csv", "id")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fit, err := erlab.FitLogistic(ctx, d, "response", "auc",
//	    erlab.WithCovariates("age", "sex"),
//	    erlab.WithSeed(42))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, s := range fit.Summary() {
//	    fmt.Println(s.Param, s.Median, s.Lower, s.Upper)
//	}
//
// Sampling runs all chains in parallel and is deterministic for a fixed
// seed. A Fit is immutable once returned and safe for concurrent reads.
package erlab
