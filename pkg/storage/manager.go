package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/eadens/cakeworld/config"
	"github.com/eadens/cakeworld/pkg/logger"
)

var (
	managerMu   sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect registers the local disk, and the s3 disk when S3_BUCKET is set,
// then selects STORAGE_DISK as the default. An s3 disk that cannot be built
// is logged and skipped.
func Connect(ctx context.Context) {
	local := NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
	var remote Disk
	if opts := S3OptionsFromConfig(); opts.Bucket != "" {
		d, err := NewS3Disk(ctx, opts)
		if err != nil {
			logger.Warn("storage: s3 disk disabled", "error", err)
		} else {
			remote = d
		}
	}

	managerMu.Lock()
	defer managerMu.Unlock()
	disks["local"] = local
	if remote != nil {
		disks["s3"] = remote
	}
	defaultDisk = config.StorageDefault()
}

// Use returns the named disk.
func Use(name string) (Disk, error) {
	managerMu.RLock()
	defer managerMu.RUnlock()
	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// Default returns the STORAGE_DISK disk, falling back to local when it is
// not registered.
func Default() Disk {
	managerMu.RLock()
	name := defaultDisk
	managerMu.RUnlock()

	for _, n := range []string{name, "local"} {
		if d, err := Use(n); err == nil {
			return d
		}
	}
	return NewLocalDisk(config.StorageLocalRoot(), config.StorageURL())
}

// RegisterDisk adds or replaces a named disk.
func RegisterDisk(name string, d Disk) {
	managerMu.Lock()
	disks[name] = d
	managerMu.Unlock()
}

func SetDefault(name string) {
	managerMu.Lock()
	defaultDisk = name
	managerMu.Unlock()
}
