package manufacture

import (
	"reflect"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// DispatcherBuilder collects systems and resolves them into a Dispatcher.
// All build-phase failures (duplicate ID, missing dependency, circular run
// order) abort construction; there is no partial scheduling.
type DispatcherBuilder struct {
	cfg        Config
	log        zerolog.Logger
	registry   map[string]SystemType
	staged     map[SystemType][]System
	singlefire map[string]System
	responders map[reflect.Type][]System
	err        error
}

// NewDispatcherBuilder creates a builder with the given configuration.
func NewDispatcherBuilder(cfg Config) *DispatcherBuilder {
	return &DispatcherBuilder{
		cfg:        cfg,
		log:        zerolog.Nop(),
		registry:   make(map[string]SystemType),
		staged:     make(map[SystemType][]System),
		singlefire: make(map[string]System),
		responders: make(map[reflect.Type][]System),
	}
}

// WithLogger installs a logger for build and run diagnostics.
func (b *DispatcherBuilder) WithLogger(log zerolog.Logger) *DispatcherBuilder {
	b.log = log
	return b
}

// Add registers a system under its identity. Every ID in Depends must name a
// system registered before this one; a duplicate ID is an error unless it
// goes through Override.
func (b *DispatcherBuilder) Add(s System) error {
	meta := s.Meta()
	if meta.ID == "" {
		return eris.New("system has an empty ID")
	}
	if _, ok := b.registry[meta.ID]; ok {
		return eris.Errorf("system %s already exists; use Override to replace it", meta.ID)
	}
	for _, dep := range meta.Depends {
		if _, ok := b.registry[dep]; !ok {
			return eris.Errorf("system %s dependency %s is not registered", meta.ID, dep)
		}
	}
	switch meta.Type {
	case Singlefire:
		b.singlefire[meta.ID] = s
	case EventResponder:
		if meta.Event == nil {
			return eris.Errorf("event responder %s declares no event type", meta.ID)
		}
		b.responders[meta.Event] = append(b.responders[meta.Event], s)
	default:
		b.staged[meta.Type] = append(b.staged[meta.Type], s)
	}
	b.registry[meta.ID] = meta.Type
	b.log.Debug().Str("system", meta.ID).Stringer("type", meta.Type).Msg("registered system")
	return nil
}

// With chains Add; the first error is kept and surfaced by Build.
func (b *DispatcherBuilder) With(s System) *DispatcherBuilder {
	if b.err == nil {
		b.err = b.Add(s)
	}
	return b
}

// Override replaces an already-registered system of the same ID.
func (b *DispatcherBuilder) Override(s System) error {
	meta := s.Meta()
	prev, ok := b.registry[meta.ID]
	if !ok {
		return eris.Errorf("attempted to override non-existing system: %s", meta.ID)
	}
	switch prev {
	case Singlefire:
		delete(b.singlefire, meta.ID)
	case EventResponder:
		for t, list := range b.responders {
			b.responders[t] = removeSystemID(list, meta.ID)
		}
	default:
		b.staged[prev] = removeSystemID(b.staged[prev], meta.ID)
	}
	delete(b.registry, meta.ID)
	return b.Add(s)
}

func removeSystemID(list []System, id string) []System {
	out := list[:0]
	for _, s := range list {
		if s.Meta().ID != id {
			out = append(out, s)
		}
	}
	return out
}

// Build resolves run-order constraints into stages and returns the
// Dispatcher. The three staged categories are layered independently;
// Singlefire and EventResponder systems run individually and are never
// staged.
func (b *DispatcherBuilder) Build() (*Dispatcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Dispatcher{
		cfg:        b.cfg,
		log:        b.log,
		interval:   b.cfg.tickInterval(),
		singlefire: b.singlefire,
		responders: b.responders,
		now:        time.Now,
	}
	for _, cat := range []SystemType{Preprocessor, Logic, Postprocessor} {
		layers, err := layerByRunOrder(b.staged[cat])
		if err != nil {
			return nil, eris.Wrapf(err, "%s scheduling failed", cat)
		}
		stages := materializeStages(layers, b.cfg.MaxSystemsPerStage)
		switch cat {
		case Preprocessor:
			d.preproc = stages
		case Logic:
			d.logic = stages
		case Postprocessor:
			d.postproc = stages
		}
		for i, stage := range stages {
			b.log.Debug().Stringer("category", cat).Int("stage", i).
				Strs("systems", systemIDs(stage)).Msg("stage materialized")
		}
	}
	return d, nil
}

// MustBuild is Build, panicking on any build-phase error.
func (b *DispatcherBuilder) MustBuild() *Dispatcher {
	d, err := b.Build()
	if err != nil {
		panic("ecs: " + err.Error())
	}
	return d
}

// layerByRunOrder assigns systems to dependency layers. All systems start in
// layer 0; each pass scans every layer and, for a Before(X) with X in the
// same layer, marks X, and for an After(X) with X in the same layer, marks
// the constrained system. Marked systems move one layer down. A layer whose
// every member is marked is a circular run order. Passes repeat until none
// shifts.
func layerByRunOrder(systems []System) ([][]System, error) {
	if len(systems) == 0 {
		return nil, nil
	}
	layers := [][]System{append([]System(nil), systems...)}
	layerOf := make(map[string]int, len(systems))
	for _, s := range systems {
		layerOf[s.Meta().ID] = 0
	}
	for {
		shifted := false
		for li := 0; li < len(layers); li++ {
			marked := make(map[string]bool)
			for _, s := range layers[li] {
				meta := s.Meta()
				for _, ro := range meta.RunOrder {
					// Constraints against systems of another layer (or
					// another category) carry no weight here.
					if tl, ok := layerOf[ro.target]; !ok || tl != li {
						continue
					}
					if ro.after {
						marked[meta.ID] = true
					} else {
						marked[ro.target] = true
					}
				}
			}
			if len(marked) == 0 {
				continue
			}
			if len(marked) == len(layers[li]) {
				ids := make([]string, 0, len(marked))
				for id := range marked {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				return nil, eris.Errorf("circular run-order dependency between systems %v", ids)
			}
			keep := layers[li][:0]
			var moved []System
			for _, s := range layers[li] {
				if marked[s.Meta().ID] {
					moved = append(moved, s)
				} else {
					keep = append(keep, s)
				}
			}
			layers[li] = keep
			if li+1 == len(layers) {
				layers = append(layers, nil)
			}
			layers[li+1] = append(layers[li+1], moved...)
			for _, s := range moved {
				layerOf[s.Meta().ID] = li + 1
			}
			shifted = true
		}
		if !shifted {
			return layers, nil
		}
	}
}

// materializeStages flattens layers into fixed-capacity stages. Within a
// layer systems are taken in ID order (order among unconstrained peers is
// unspecified and must not be relied on); a layer may span several stages,
// but a later layer never shares a stage with an earlier one.
func materializeStages(layers [][]System, maxPerStage int) [][]System {
	var stages [][]System
	for _, layer := range layers {
		if len(layer) == 0 {
			continue
		}
		sorted := append([]System(nil), layer...)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Meta().ID < sorted[j].Meta().ID
		})
		for start := 0; start < len(sorted); start += maxPerStage {
			end := min(start+maxPerStage, len(sorted))
			stages = append(stages, sorted[start:end])
		}
	}
	return stages
}

func systemIDs(stage []System) []string {
	ids := make([]string, len(stage))
	for i, s := range stage {
		ids[i] = s.Meta().ID
	}
	return ids
}

// Dispatcher drives the main loop: staged preprocessors every frame, staged
// logic systems on the fixed tick, singlefire and event-responder dispatch,
// command draining, staged postprocessors, exit handling and event rotation.
type Dispatcher struct {
	cfg        Config
	log        zerolog.Logger
	interval   time.Duration
	preproc    [][]System
	logic      [][]System
	postproc   [][]System
	singlefire map[string]System
	responders map[reflect.Type][]System
	now        func() time.Time
	lastTick   time.Time
	ticked     bool
}

// StageIDs returns the scheduled stage layout for a staged category, as
// system IDs per stage. Diagnostic surface; Singlefire and EventResponder
// systems have no stages.
func (d *Dispatcher) StageIDs(cat SystemType) [][]string {
	var stages [][]System
	switch cat {
	case Preprocessor:
		stages = d.preproc
	case Logic:
		stages = d.logic
	case Postprocessor:
		stages = d.postproc
	}
	out := make([][]string, len(stages))
	for i, stage := range stages {
		out[i] = systemIDs(stage)
	}
	return out
}

func (d *Dispatcher) runStages(stages [][]System, w *World) {
	for _, stage := range stages {
		for _, s := range stage {
			s.Execute(w)
		}
	}
}

// RunFrame executes one frame of the loop. The logic phase runs only when at
// least one tick interval has elapsed since the previous tick (the first
// frame always ticks). It returns accumulated exit codes and true once an
// AppExit was observed.
func (d *Dispatcher) RunFrame(w *World) ([]int, bool) {
	d.runStages(d.preproc, w)

	now := d.now()
	if !d.ticked || now.Sub(d.lastTick) >= d.interval {
		d.ticked = true
		d.lastTick = now
		d.runStages(d.logic, w)
		for _, id := range w.takeTriggers() {
			s, ok := d.singlefire[id]
			if !ok {
				d.log.Warn().Str("trigger", id).Msg("trigger names no singlefire system")
				continue
			}
			s.Execute(w)
		}
		for _, t := range pendingSorted(w) {
			for _, s := range d.responders[t] {
				s.Execute(w)
			}
		}
		w.DrainCommands()
		w.RotateEvents()
		w.advanceTick()
	}

	d.runStages(d.postproc, w)

	codes := w.drainExitCodes()
	w.advanceFrame()
	if len(codes) > 0 {
		d.log.Info().Ints("exit_codes", codes).Msg("exit requested")
		return codes, true
	}
	return nil, false
}

// pendingSorted orders pending event types by name so responder dispatch is
// deterministic across runs.
func pendingSorted(w *World) []reflect.Type {
	types := w.pendingEventTypes()
	sort.Slice(types, func(i, j int) bool {
		return types[i].String() < types[j].String()
	})
	return types
}

// Run loops RunFrame until an AppExit event is observed and returns every
// exit code accumulated in that final frame. The tick gate is a polling
// check, not a sleep; the caller owns pacing beyond the tick rate.
func (d *Dispatcher) Run(w *World) []int {
	for {
		if codes, done := d.RunFrame(w); done {
			return codes
		}
	}
}
