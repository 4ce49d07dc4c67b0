package manufacture_test

import (
	"testing"

	manufacture "github.com/MaxisMaximov/manufacture-engine"
)

// --- Test Events ---
type Collision struct{ A, B manufacture.EntityID }
type Damage struct{ Amount int }

// go test -run ^TestEventRotation$ . -count 1
func TestEventRotation(t *testing.T) {
	w := manufacture.NewWorld()
	manufacture.RegisterEvent[Collision](w)

	// Tick N: send. The event must be invisible to readers this tick.
	wr := manufacture.EventWriterFor[Collision](w)
	wr.Send(Collision{A: 1, B: 2})
	wr.Close()

	rd := manufacture.EventReaderFor[Collision](w)
	if rd.Len() != 0 {
		t.Fatalf("event must be invisible before rotation, saw %d", rd.Len())
	}
	rd.Close()

	// Tick N+1: after exactly one rotation it becomes readable.
	w.RotateEvents()
	rd = manufacture.EventReaderFor[Collision](w)
	if rd.Len() != 1 {
		t.Fatalf("event must be visible after one rotation, saw %d", rd.Len())
	}
	if ev := rd.Events()[0]; ev.A != 1 || ev.B != 2 {
		t.Errorf("event data incorrect: %+v", ev)
	}
	rd.Close()

	// Tick N+2: not resent, so it is gone again.
	w.RotateEvents()
	rd = manufacture.EventReaderFor[Collision](w)
	defer rd.Close()
	if rd.Len() != 0 {
		t.Errorf("event must vanish after the second rotation, saw %d", rd.Len())
	}
}

// go test -run ^TestEventWriterReadsOwnTick$ . -count 1
func TestEventWriterReadsOwnTick(t *testing.T) {
	w := manufacture.NewWorld()
	manufacture.RegisterEvent[Damage](w)

	wr := manufacture.EventWriterFor[Damage](w)
	defer wr.Close()
	wr.Send(Damage{Amount: 3})
	wr.Send(Damage{Amount: 7})

	if wr.Len() != 2 {
		t.Fatalf("writer should see its own tick's sends, saw %d", wr.Len())
	}
	if evs := wr.Events(); evs[0].Amount != 3 || evs[1].Amount != 7 {
		t.Errorf("send order not preserved: %+v", evs)
	}
}

// go test -run ^TestEventAliasing$ . -count 1
func TestEventAliasing(t *testing.T) {
	w := manufacture.NewWorld()
	manufacture.RegisterEvent[Collision](w)

	t.Run("TwoWritersPanic", func(t *testing.T) {
		wr := manufacture.EventWriterFor[Collision](w)
		defer wr.Close()
		expectPanic(t, func() { manufacture.EventWriterFor[Collision](w) })
	})

	t.Run("TwoReadersSucceed", func(t *testing.T) {
		a := manufacture.EventReaderFor[Collision](w)
		b := manufacture.EventReaderFor[Collision](w)
		a.Close()
		b.Close()
	})

	t.Run("ReaderAndWriterCoexist", func(t *testing.T) {
		// Reader and writer borrow different buffers of the pair.
		rd := manufacture.EventReaderFor[Collision](w)
		wr := manufacture.EventWriterFor[Collision](w)
		wr.Close()
		rd.Close()
	})
}

// go test -run ^TestEventRegistration$ . -count 1
func TestEventRegistration(t *testing.T) {
	w := manufacture.NewWorld()
	manufacture.RegisterEvent[Collision](w)

	expectPanic(t, func() { manufacture.RegisterEvent[Collision](w) })

	manufacture.DeregisterEvent[Collision](w)
	expectPanic(t, func() { manufacture.EventReaderFor[Collision](w) })
}
