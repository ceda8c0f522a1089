package orchestrator

import "github.com/fatxtool/fatx/internal/xtaf"

// PrepareMount runs the mount pipeline's pre-flight step (an optional
// gapcheck) before the caller hands the context to the fuse adapter's
// event loop, per spec §4.8's mount pipeline.
func PrepareMount(ctx *xtaf.Context, gapcheck bool) {
	if gapcheck {
		ctx.Fat.GapCheck()
	}
}
