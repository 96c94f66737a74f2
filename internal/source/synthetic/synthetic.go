// Package synthetic generates a deterministic clickstream for runs without
// real logs. Sessions open on the root route, browse a small set of common
// navigation targets first, then wander uniformly over the route space.
package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/crimson-sun/presage/internal/model"
	"github.com/crimson-sun/presage/internal/source"
)

// commonNavigation is the pool early page views draw from.
var commonNavigation = []string{"/", "/category/1", "/category/2", "/product/1"}

const (
	defaultSessions = 10000
	defaultRoutes   = 20

	minViews = 8
	maxViews = 25
)

func init() {
	source.Register("synthetic", func() source.Source { return &Generator{} })
}

// Generator produces seeded synthetic sessions.
type Generator struct{}

// Load generates cfg.Sessions sessions over cfg.Routes routes using
// cfg.Seed. The same configuration always yields the same events. Session
// identifiers are zero-padded so their lexicographic order matches
// generation order.
func (g *Generator) Load(ctx context.Context, cfg source.Config) ([]model.Event, error) {
	sessions := cfg.Sessions
	if sessions <= 0 {
		sessions = defaultSessions
	}
	numRoutes := cfg.Routes
	if numRoutes <= 0 {
		numRoutes = defaultRoutes
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	routes := make([]string, numRoutes)
	for i := range routes {
		routes[i] = fmt.Sprintf("/route_%d", i)
	}
	users := sessions / 10
	if users < 1 {
		users = 1
	}
	idWidth := len(strconv.Itoa(sessions - 1))

	var events []model.Event
	for s := 0; s < sessions; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sessionID := fmt.Sprintf("%0*d", idWidth, s)
		userID := strconv.Itoa(rng.Intn(users))
		views := minViews + rng.Intn(maxViews-minViews+1)

		for v := 0; v < views; v++ {
			var route string
			switch {
			case v == 0:
				route = "/"
			case v < 3:
				route = commonNavigation[rng.Intn(len(commonNavigation))]
			default:
				route = routes[rng.Intn(len(routes))]
			}
			events = append(events, model.Event{
				SessionID: sessionID,
				EntityID:  source.Canonical(route),
				Timestamp: int64(s)*1000 + int64(v)*1000 + int64(rng.Intn(5000)),
				UserID:    userID,
			})
		}
	}
	return events, nil
}
