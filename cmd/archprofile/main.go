// Command archprofile drives a bulk create/query/destroy cycle against the
// storage core and captures an allocation profile.
//
//	go build ./cmd/archprofile
//	go tool pprof -http=":8000" -nodefraction=0.001 ./archprofile mem.pprof
package main

import (
	"flag"
	"log"

	"github.com/TheBitDrifter/bark"
	"github.com/pkg/profile"

	ecs "github.com/latticeforge/archecs"
)

type position struct {
	X, Y float64
}

type velocity struct {
	X, Y float64
}

func main() {
	rounds := flag.Int("rounds", 50, "number of create/query/destroy rounds")
	iters := flag.Int("iters", 10000, "query passes per round")
	entities := flag.Int("entities", 1000, "entities created per round")
	kind := flag.String("profile", "mem", "profile kind: mem or cpu")
	flag.Parse()

	var stop func()
	switch *kind {
	case "cpu":
		stop = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	default:
		stop = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop
	}
	defer stop()

	if err := run(*rounds, *iters, *entities); err != nil {
		log.Fatal(bark.AddTrace(err))
	}
}

func run(rounds, iters, numEntities int) error {
	for r := 0; r < rounds; r++ {
		schema := ecs.NewSchema()
		posID, err := ecs.RegisterComponent[position](schema)
		if err != nil {
			return err
		}
		velID, err := ecs.RegisterComponent[velocity](schema)
		if err != nil {
			return err
		}

		w := ecs.NewWorld(schema, ecs.WorldOptions{})
		batch := ecs.NewBatch[position](w, posID)
		query := ecs.NewQuery(
			ecs.NewDefinition().WithComponent(posID).WithComponent(velID),
			ecs.NewDefinition(),
		)

		created := batch.CreateEntitiesWithComponent(numEntities, position{})
		for _, e := range created {
			if err := ecs.AddComponent(w, e, velID, velocity{X: 1, Y: 1}); err != nil {
				return err
			}
		}

		for i := 0; i < iters; i++ {
			query.IterChunks(w, func(view ecs.ChunkView) bool {
				pos := ecs.ChunkColumn[position](view, posID)
				vel := ecs.ChunkColumn[velocity](view, velID)
				for j := range pos {
					pos[j].X += vel[j].X
					pos[j].Y += vel[j].Y
				}
				return true
			})
		}

		for _, e := range created {
			if err := w.Destroy(e); err != nil {
				return err
			}
		}
	}
	return nil
}
