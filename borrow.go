package manufacture

import "fmt"

// borrowCell enforces the single-writer/multi-reader discipline for one
// registry entry at acquisition time. It replaces a compile-time borrow
// checker with a runtime equivalent: a violation is a wiring bug in how
// systems request data, so it fails fast instead of blocking.
type borrowCell struct {
	name    string
	readers int
	writer  bool
}

func (c *borrowCell) acquireRead() {
	if c.writer {
		panic(fmt.Sprintf("ecs: %s is already mutably borrowed", c.name))
	}
	c.readers++
}

func (c *borrowCell) releaseRead() {
	if c.readers == 0 {
		panic(fmt.Sprintf("ecs: unbalanced read release on %s", c.name))
	}
	c.readers--
}

func (c *borrowCell) acquireWrite() {
	if c.writer {
		panic(fmt.Sprintf("ecs: %s is already mutably borrowed", c.name))
	}
	if c.readers > 0 {
		panic(fmt.Sprintf("ecs: %s is already borrowed by %d reader(s)", c.name, c.readers))
	}
	c.writer = true
}

func (c *borrowCell) releaseWrite() {
	if !c.writer {
		panic(fmt.Sprintf("ecs: unbalanced write release on %s", c.name))
	}
	c.writer = false
}

// checkFree fails when any borrow is live. Used by removal paths that destroy
// the cell along with its registry entry.
func (c *borrowCell) checkFree() {
	if c.writer {
		panic(fmt.Sprintf("ecs: %s is already mutably borrowed", c.name))
	}
	if c.readers > 0 {
		panic(fmt.Sprintf("ecs: %s is already borrowed by %d reader(s)", c.name, c.readers))
	}
}
