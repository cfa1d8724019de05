// Package processing orchestrates batch verification and conversion runs.
package processing

import (
	"fmt"
	"os/exec"

	"github.com/five82/hevcheck/internal/config"
	"github.com/five82/hevcheck/internal/errors"
	"github.com/five82/hevcheck/internal/util"
)

// lookPath is swapped out in tests.
var lookPath = exec.LookPath

// Preflight verifies that required external tools and assets are present
// before a run starts.
func Preflight(cfg *config.Config) error {
	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if _, err := lookPath(tool); err != nil {
			return errors.NewPreconditionError(fmt.Sprintf("%s not found on PATH", tool))
		}
	}

	if cfg.Mode == config.ModeDeepScan && cfg.VMAFModelPath != "" {
		if !util.FileExists(cfg.VMAFModelPath) {
			return errors.NewPreconditionError(fmt.Sprintf("VMAF model not found: %s", cfg.VMAFModelPath))
		}
	}

	return nil
}
