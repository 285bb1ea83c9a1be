// Package cascadelog classifies free-text log lines through a
// three-stage cascade: regex rules, embedding similarity against
// labeled centroids, and a last-resort LLM call constrained to a
// fixed label vocabulary.
//
// Construct a Classifier once and reuse it; batches run concurrently
// and results always come back one per input, in input order:
//
//	clf, err := cascadelog.New(ctx,
//	    cascadelog.WithLLM(baseURL, apiKey, "gemma2-9b-it"),
//	)
//	if err != nil {
//	    // handle startup error
//	}
//	defer clf.Close()
//
//	results := clf.ClassifyBatch(ctx, []cascadelog.Record{
//	    {Source: "server", Message: "Error 503: Service unavailable"},
//	})
package cascadelog
