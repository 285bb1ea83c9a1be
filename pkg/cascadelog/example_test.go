package cascadelog_test

import (
	"context"
	"fmt"
	"os"

	"github.com/cascadehq/cascadelog/pkg/cascadelog"
)

func Example() {
	ctx := context.Background()

	clf, err := cascadelog.New(ctx,
		cascadelog.WithLLM("", os.Getenv("GROQ_API_KEY"), "gemma2-9b-it"),
		cascadelog.WithConfidenceThreshold(0.75),
	)
	if err != nil {
		fmt.Println("startup:", err)
		return
	}
	defer clf.Close()

	results := clf.ClassifyBatch(ctx, []cascadelog.Record{
		{Source: "server", Message: "Error 503: Service unavailable"},
		{Source: "crm", Message: "Case escalation for ticket 7324 failed"},
	})
	for _, r := range results {
		fmt.Printf("%s -> %s (%s)\n", r.Message, r.Label, r.Stage)
	}
}
