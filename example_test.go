package parley_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ferrobraz/parley"
	"github.com/ferrobraz/parley/pkg/domain"
	"github.com/ferrobraz/parley/pkg/graph"
)

// ExampleNew_library demonstrates using Parley purely as a Go library,
// injecting a dialogue graph without reading from the filesystem.
func ExampleNew_library() {
	// 1. Define the partner's graph with pure Go structs.
	g := graph.New("guide", "start", "", []domain.Node{
		{
			ID:      "start",
			Speaker: "Guide",
			Text:    "Welcome aboard. Ready for the tour?",
			Options: []domain.Option{
				{Label: "Lead the way.", Target: "tour"},
				{Label: "Maybe later.", Target: "later"},
			},
		},
		{
			ID:       "tour",
			Speaker:  "Guide",
			Text:     "Then follow me.",
			Terminal: true,
		},
		{
			ID:       "later",
			Speaker:  "Guide",
			Text:     "I'll be here.",
			Terminal: true,
		},
	})
	reg := graph.NewRegistry()
	reg.Add(g)

	// 2. Initialize the engine with the in-memory registry. No content
	// directory needed.
	eng, err := parley.New("", parley.WithRegistry(reg))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Open the conversation and deliver the opener.
	ctx := context.Background()
	key := domain.ConversationKey{UserID: "visitor", PartnerID: "guide"}

	_, pending, err := eng.Open(ctx, key)
	if err != nil {
		log.Fatal(err)
	}
	if pending {
		if _, err := eng.Reveal(ctx, key); err != nil {
			log.Fatal(err)
		}
	}

	// 4. Pick an option and print what the partner said.
	pres, err := eng.Presentation(ctx, key)
	if err != nil {
		log.Fatal(err)
	}
	pres, err = eng.SelectOption(ctx, key, pres.Options[0])
	if err != nil {
		log.Fatal(err)
	}

	for _, msg := range pres.History {
		fmt.Printf("%s: %s\n", msg.Speaker, msg.Text)
	}
	// Output:
	// Guide: Welcome aboard. Ready for the tour?
	// user: Lead the way.
	// Guide: Then follow me.
}
