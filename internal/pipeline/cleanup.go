package pipeline

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Cleanup removes a finished run's work dir.
func Cleanup(log zerolog.Logger, workDir string) error {
	start := time.Now()
	if err := os.RemoveAll(workDir); err != nil {
		return err
	}
	log.Info().
		Str("work_dir", workDir).
		Dur("duration", time.Since(start)).
		Msg("work dir cleanup complete")
	return nil
}
