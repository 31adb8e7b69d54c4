package project

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeBytes reports the free space on the filesystem containing path.
func FreeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// CheckFreeSpace returns an error when the filesystem containing path has
// less than minGiB gibibytes available. A minGiB of zero disables the check.
func CheckFreeSpace(path string, minGiB int) error {
	if minGiB <= 0 {
		return nil
	}
	free, err := FreeBytes(path)
	if err != nil {
		return err
	}
	required := uint64(minGiB) << 30
	if free < required {
		return fmt.Errorf("insufficient free space on %s: %d GiB required, %.1f GiB available",
			path, minGiB, float64(free)/(1<<30))
	}
	return nil
}
