package file

import (
	"context"
	"os"
	"time"

	"github.com/Cyclone1070/q/internal/tool/service/executor"
)

// pathResolver turns model supplied paths into absolute paths.
type pathResolver interface {
	Abs(path string) (string, error)
}

// fileReader defines the minimal filesystem operations needed for reading files.
type fileReader interface {
	ReadFileLimit(path string, limit int64) ([]byte, error)
}

// fileWriter defines the minimal filesystem operations needed for writing files.
type fileWriter interface {
	Stat(path string) (os.FileInfo, error)
	WriteFileAtomic(path string, content []byte, perm os.FileMode) error
	EnsureDirs(path string) error
}

// commandExecutor runs the PDF converter.
type commandExecutor interface {
	RunWithTimeout(ctx context.Context, cmd []string, dir string, env []string, timeout time.Duration) (*executor.Result, error)
}
