package manufacture_test

import (
	"strings"
	"testing"

	manufacture "github.com/MaxisMaximov/manufacture-engine"
)

type stubSystem struct {
	meta manufacture.SystemMeta
	fn   func(*manufacture.World)
}

func (s *stubSystem) Meta() manufacture.SystemMeta { return s.meta }

func (s *stubSystem) Execute(w *manufacture.World) {
	if s.fn != nil {
		s.fn(w)
	}
}

func logicSystem(id string, fn func(*manufacture.World), order ...manufacture.RunOrder) *stubSystem {
	return &stubSystem{
		meta: manufacture.SystemMeta{ID: id, Type: manufacture.Logic, RunOrder: order},
		fn:   fn,
	}
}

// fastConfig makes every gate check pass so multi-tick tests can spin
// RunFrame until the tick counter advances.
func fastConfig() manufacture.Config {
	cfg := manufacture.DefaultConfig()
	cfg.TicksPerSecond = 1000000
	return cfg
}

func runTicks(t *testing.T, d *manufacture.Dispatcher, w *manufacture.World, n uint64) {
	t.Helper()
	for w.Ticks() < n {
		if _, done := d.RunFrame(w); done {
			t.Fatal("unexpected exit before reaching tick count")
		}
	}
}

// go test -run ^TestDispatcherStageOrdering$ . -count 1
func TestDispatcherStageOrdering(t *testing.T) {
	d := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig()).
		With(logicSystem("alpha", nil)).
		With(logicSystem("beta", nil, manufacture.After("alpha"))).
		With(logicSystem("gamma", nil, manufacture.Before("alpha"))).
		MustBuild()

	stages := d.StageIDs(manufacture.Logic)
	want := [][]string{{"gamma"}, {"alpha"}, {"beta"}}
	if len(stages) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, stages)
	}
	for i := range want {
		if len(stages[i]) != 1 || stages[i][0] != want[i][0] {
			t.Fatalf("expected stages %v, got %v", want, stages)
		}
	}
}

// go test -run ^TestDispatcherStageCapacity$ . -count 1
func TestDispatcherStageCapacity(t *testing.T) {
	b := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig())
	for _, id := range []string{"g", "c", "a", "e", "b", "f", "d"} {
		b.With(logicSystem(id, nil))
	}
	// The ID sorts before its peers, so a wrong layer assignment would put it
	// in the first stage instead of after the split.
	b.With(logicSystem("aftermath", nil, manufacture.After("d")))
	d := b.MustBuild()

	stages := d.StageIDs(manufacture.Logic)
	if len(stages) != 3 || len(stages[0]) != 5 || len(stages[1]) != 2 || len(stages[2]) != 1 {
		t.Fatalf("expected a 5/2/1 split, got %v", stages)
	}
	// Unconstrained peers are taken in ID order for determinism.
	flat := append(append([]string(nil), stages[0]...), stages[1]...)
	for i, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		if flat[i] != id {
			t.Fatalf("expected sorted IDs across stages, got %v", flat)
		}
	}
	// The dependent system must follow both stages of the split layer, even
	// though its constraint target sits in the first of them.
	if stages[2][0] != "aftermath" {
		t.Fatalf("dependent system must land after every stage of the earlier layer, got %v", stages)
	}
}

// go test -run ^TestDispatcherBuildErrors$ . -count 1
func TestDispatcherBuildErrors(t *testing.T) {
	t.Run("DuplicateID", func(t *testing.T) {
		b := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig())
		if err := b.Add(logicSystem("dup", nil)); err != nil {
			t.Fatal(err)
		}
		err := b.Add(logicSystem("dup", nil))
		if err == nil || !strings.Contains(err.Error(), "Override") {
			t.Errorf("expected duplicate-ID error pointing at Override, got %v", err)
		}
	})

	t.Run("EmptyID", func(t *testing.T) {
		b := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig())
		if err := b.Add(logicSystem("", nil)); err == nil {
			t.Error("expected error for empty system ID")
		}
	})

	t.Run("MissingDependency", func(t *testing.T) {
		b := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig())
		err := b.Add(&stubSystem{meta: manufacture.SystemMeta{
			ID:      "needy",
			Depends: []string{"absent"},
		}})
		if err == nil || !strings.Contains(err.Error(), "absent") {
			t.Errorf("expected missing-dependency error, got %v", err)
		}
	})

	t.Run("ResponderWithoutEvent", func(t *testing.T) {
		b := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig())
		err := b.Add(&stubSystem{meta: manufacture.SystemMeta{
			ID:   "deaf",
			Type: manufacture.EventResponder,
		}})
		if err == nil {
			t.Error("expected error for responder with no event type")
		}
	})

	t.Run("CircularRunOrder", func(t *testing.T) {
		_, err := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig()).
			With(logicSystem("a", nil, manufacture.After("b"))).
			With(logicSystem("b", nil, manufacture.After("c"))).
			With(logicSystem("c", nil, manufacture.After("a"))).
			Build()
		if err == nil || !strings.Contains(err.Error(), "circular") {
			t.Errorf("expected circular run-order error, got %v", err)
		}
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		cfg := manufacture.DefaultConfig()
		cfg.TicksPerSecond = 0
		if _, err := manufacture.NewDispatcherBuilder(cfg).Build(); err == nil {
			t.Error("expected config validation error")
		}
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		b := manufacture.NewDispatcherBuilder(manufacture.DefaultConfig())
		b.With(logicSystem("dup", nil)).With(logicSystem("dup", nil))
		expectPanic(t, func() { b.MustBuild() })
	})
}

// go test -run ^TestDispatcherOverride$ . -count 1
func TestDispatcherOverride(t *testing.T) {
	b := manufacture.NewDispatcherBuilder(fastConfig())
	ran := ""
	if err := b.Add(logicSystem("mover", func(*manufacture.World) { ran = "original" })); err != nil {
		t.Fatal(err)
	}
	if err := b.Override(logicSystem("mover", func(*manufacture.World) { ran = "replacement" })); err != nil {
		t.Fatal(err)
	}
	if err := b.Override(logicSystem("stranger", nil)); err == nil {
		t.Error("expected error overriding a non-existing system")
	}

	d := b.MustBuild()
	w := setupWorld(t)
	runTicks(t, d, w, 1)
	if ran != "replacement" {
		t.Errorf("expected the replacement to run, got %q", ran)
	}
}

// go test -run ^TestDispatcherTickGate$ . -count 1
func TestDispatcherTickGate(t *testing.T) {
	cfg := manufacture.DefaultConfig()
	cfg.TicksPerSecond = 1

	var logicRuns, preRuns, postRuns int
	d := manufacture.NewDispatcherBuilder(cfg).
		With(logicSystem("count", func(*manufacture.World) { logicRuns++ })).
		With(&stubSystem{
			meta: manufacture.SystemMeta{ID: "pre", Type: manufacture.Preprocessor},
			fn:   func(*manufacture.World) { preRuns++ },
		}).
		With(&stubSystem{
			meta: manufacture.SystemMeta{ID: "post", Type: manufacture.Postprocessor},
			fn:   func(*manufacture.World) { postRuns++ },
		}).
		MustBuild()

	w := setupWorld(t)
	d.RunFrame(w) // first frame always ticks
	d.RunFrame(w) // a second frame inside the same second must not
	if logicRuns != 1 {
		t.Errorf("expected 1 logic run behind the tick gate, got %d", logicRuns)
	}
	if preRuns != 2 || postRuns != 2 {
		t.Errorf("pre/post processors run every frame, got %d/%d", preRuns, postRuns)
	}
	if w.Ticks() != 1 || w.Frames() != 2 {
		t.Errorf("expected 1 tick over 2 frames, got %d/%d", w.Ticks(), w.Frames())
	}
}

// go test -run ^TestSinglefireTriggers$ . -count 1
func TestSinglefireTriggers(t *testing.T) {
	w := setupWorld(t)
	chainRuns := 0
	fired := false

	d := manufacture.NewDispatcherBuilder(fastConfig()).
		With(logicSystem("igniter", func(w *manufacture.World) {
			if fired {
				return
			}
			fired = true
			tw := w.TriggerWriter()
			defer tw.Close()
			tw.Fire("chain")
			tw.Fire("nobody-home") // unknown triggers are skipped, not fatal
		})).
		With(&stubSystem{
			meta: manufacture.SystemMeta{ID: "chain", Type: manufacture.Singlefire},
			fn: func(w *manufacture.World) {
				chainRuns++
				// Re-firing mid-drain must wait for the next tick.
				tw := w.TriggerWriter()
				defer tw.Close()
				if chainRuns == 1 {
					tw.Fire("chain")
				}
			},
		}).
		MustBuild()

	runTicks(t, d, w, 1)
	if chainRuns != 1 {
		t.Fatalf("a trigger fired mid-drain must not daisy-chain, got %d runs", chainRuns)
	}
	runTicks(t, d, w, 2)
	if chainRuns != 2 {
		t.Errorf("the re-fired trigger runs on the following tick, got %d runs", chainRuns)
	}
	runTicks(t, d, w, 3)
	if chainRuns != 2 {
		t.Errorf("no trigger pending, expected no further runs, got %d", chainRuns)
	}
}

// go test -run ^TestEventResponders$ . -count 1
func TestEventResponders(t *testing.T) {
	w := setupWorld(t)
	manufacture.RegisterEvent[Damage](w)

	responses := 0
	d := manufacture.NewDispatcherBuilder(fastConfig()).
		With(logicSystem("attacker", func(w *manufacture.World) {
			if w.Ticks() > 0 {
				return
			}
			ew := manufacture.EventWriterFor[Damage](w)
			defer ew.Close()
			ew.Send(Damage{Amount: 10})
		})).
		With(&stubSystem{
			meta: manufacture.SystemMeta{
				ID:    "flinch",
				Type:  manufacture.EventResponder,
				Event: manufacture.EventOf[Damage](),
			},
			fn: func(w *manufacture.World) {
				responses++
				// Responders run before the tick's rotation, so this tick's
				// sends are still on the write side.
				ew := manufacture.EventWriterFor[Damage](w)
				defer ew.Close()
				if ew.Len() != 1 || ew.Events()[0].Amount != 10 {
					t.Errorf("responder must see this tick's sends, got %v", ew.Events())
				}
			},
		}).
		MustBuild()

	runTicks(t, d, w, 1)
	if responses != 1 {
		t.Fatalf("expected 1 responder run on the sending tick, got %d", responses)
	}
	runTicks(t, d, w, 3)
	if responses != 1 {
		t.Errorf("responder must not run on tick boundaries without sends, got %d", responses)
	}
}

// go test -run ^TestDispatcherRunExit$ . -count 1
func TestDispatcherRunExit(t *testing.T) {
	w := setupWorld(t)
	d := manufacture.NewDispatcherBuilder(fastConfig()).
		With(logicSystem("quitter", func(w *manufacture.World) {
			ew := manufacture.EventWriterFor[manufacture.AppExit](w)
			defer ew.Close()
			ew.Send(manufacture.AppExit{Code: 3})
		})).
		MustBuild()

	codes := d.Run(w)
	if len(codes) != 1 || codes[0] != 3 {
		t.Errorf("expected exit codes [3], got %v", codes)
	}
	if w.Frames() != 1 {
		t.Errorf("expected the loop to stop after the exiting frame, got %d frames", w.Frames())
	}
}

// go test -run ^TestDispatcherMovement$ . -count 1
func TestDispatcherMovement(t *testing.T) {
	w := setupWorld(t)
	d := manufacture.NewDispatcherBuilder(fastConfig()).
		With(logicSystem("movement", func(w *manufacture.World) {
			q := manufacture.NewQuery2[Position, Velocity](w, manufacture.Write, manufacture.Read)
			defer q.Close()
			for q.Next() {
				pos, vel := q.At()
				pos.X += vel.X
				pos.Y += vel.Y
			}
		})).
		MustBuild()

	b := w.Spawn()
	manufacture.With(b, Position{})
	manufacture.With(b, Velocity{X: 2, Y: -1})
	still := w.Spawn()
	manufacture.With(still, Position{X: 5})

	runTicks(t, d, w, 3)

	v := manufacture.Fetch[Position](w)
	defer v.Close()
	if p, _ := v.Get(b.ID()); p.X != 6 || p.Y != -3 {
		t.Errorf("expected position (6,-3) after 3 ticks, got %+v", p)
	}
	if p, _ := v.Get(still.ID()); p.X != 5 {
		t.Errorf("entity without velocity must not move, got %+v", p)
	}
}
