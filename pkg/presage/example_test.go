package presage_test

import (
	"context"
	"fmt"
	"log"

	"github.com/crimson-sun/presage/pkg/presage"
)

func Example() {
	// Two sessions that alternate strictly between /a and /b after the
	// landing page.
	var events []presage.Event
	for s := 0; s < 2; s++ {
		routes := []string{"/", "/a", "/b", "/a", "/b", "/a", "/b"}
		for i, r := range routes {
			events = append(events, presage.Event{
				SessionID: fmt.Sprintf("s%d", s),
				EntityID:  r,
				Timestamp: int64(i) * 1000,
			})
		}
	}

	ds, err := presage.Prepare(events,
		presage.WithWindowSize(2),
		presage.WithTrainFraction(0.5),
		presage.WithKValues(1),
	)
	if err != nil {
		log.Fatal(err)
	}

	scorer, err := ds.MarkovScorer()
	if err != nil {
		log.Fatal(err)
	}
	metrics, err := ds.Evaluate(context.Background(), scorer)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("classes: %d\n", ds.Classes())
	fmt.Printf("precision@1: %.2f\n", metrics["precision@1"])
	// Output:
	// classes: 3
	// precision@1: 1.00
}
