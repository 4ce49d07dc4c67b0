// Profiling:
// go build ./profile/dispatch
// go tool pprof -http=":8000" -nodefraction=0.001 ./dispatch mem.pprof

package main

import (
	"github.com/pkg/profile"

	manufacture "github.com/MaxisMaximov/manufacture-engine"
)

type position struct {
	X, Y float64
}

type velocity struct {
	X, Y float64
}

type movement struct{}

func (movement) Meta() manufacture.SystemMeta {
	return manufacture.SystemMeta{ID: "movement"}
}

func (movement) Execute(w *manufacture.World) {
	q := manufacture.NewQuery2[position, velocity](w, manufacture.Write, manufacture.Read)
	defer q.Close()
	for q.Next() {
		pos, vel := q.At()
		pos.X += vel.X
		pos.Y += vel.Y
	}
}

func main() {
	frames := 100000
	entities := 10000

	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(frames, entities)
	p.Stop()
}

func run(frames, entities int) {
	w := manufacture.NewWorld()
	manufacture.RegisterComponent[position](w)
	manufacture.RegisterComponent[velocity](w)
	for i := 0; i < entities; i++ {
		b := w.Spawn()
		manufacture.With(b, position{})
		manufacture.With(b, velocity{X: 1, Y: -1})
	}

	cfg := manufacture.DefaultConfig()
	cfg.TicksPerSecond = 1000000
	d := manufacture.NewDispatcherBuilder(cfg).
		With(movement{}).
		MustBuild()

	for i := 0; i < frames; i++ {
		d.RunFrame(w)
	}
}
