package xtaf

// Context is the single, explicitly-passed object that makes the
// Device, FAT, geometry and root Entry reachable from anywhere,
// replacing any hidden global (spec §9, "Shared mutable context").
// The orchestrator owns its Init/Close lifecycle.
type Context struct {
	Dev     Blockdev
	Fat     FAT
	Geom    Geometry
	Root    *Entry
	Opts    Options
	Confirm Confirmer
}

// Init constructs the root Entry once Dev/Fat/Geom/Opts are set.
func (c *Context) Init() error {
	root, err := NewRootEntry(c)
	if err != nil {
		return err
	}
	c.Root = root
	return nil
}

// Close releases any resources the context owns. The Device and FAT
// caches hold no non-GC resources beyond the open file, which the
// caller (orchestrator) owns and closes itself.
func (c *Context) Close() error { return nil }
