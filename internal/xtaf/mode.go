package xtaf

// Mode identifies which of the five orchestrator pipelines is
// currently driving the engine, since several behaviors (duplicate
// name resolution, deleted-record acceptance, interactive repair
// offers) differ by mode per spec §3-§4.
type Mode int

const (
	ModeMount Mode = iota
	ModeMkfs
	ModeFsck
	ModeUnrm
	ModeLabel
)

// Options carries the small set of engine-wide toggles the CLI flags
// map onto (spec §6.3): --nofat, --nodate, --nolost, --local. The
// yes/no/auto batch-confirm answers (-y/-n/-a) are not carried here;
// they are handled by the Confirmer.
type Options struct {
	Mode      Mode
	NoFAT     bool
	NoDate    bool
	NoLost    bool
	Local     bool
	Recovery  bool // true for unrm's opendir() relaxed acceptance of records past end
	DelDate   bool // guess() honors update-timestamp ownership challenges
}
