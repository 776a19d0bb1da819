package simplefs

import (
	"log"
	"os"
)

// Option configures an SFS instance at Create/Open time.
type Option func(*SFS) error

// WithLogger overrides the destination for the package's diagnostic
// logging. The default logger writes to os.Stderr, matching the standard
// library's log.Default().
func WithLogger(l *log.Logger) Option {
	return func(fs *SFS) error {
		fs.log = l
		return nil
	}
}

func defaultLogger() *log.Logger {
	return log.New(os.Stderr, "sfs: ", log.LstdFlags)
}
