package gates

import (
	"path/filepath"

	"github.com/gofrs/flock"
)

// AcquireBootstrapLock serializes first-run schema creation across
// processes that race to open the same data directory before any row in
// the database exists for TryAcquire to arbitrate over, mirroring the
// teacher's internal/daemon/registry.go file-lock pattern. Callers must
// defer Unlock on the returned lock once migrations have run.
func AcquireBootstrapLock(dataDir string) (*flock.Flock, error) {
	fl := flock.New(filepath.Join(dataDir, ".remem.bootstrap.lock"))
	if err := fl.Lock(); err != nil {
		return nil, err
	}
	return fl, nil
}
