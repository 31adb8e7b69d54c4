// Package fileutil holds small file helpers shared by the job handlers.
package fileutil

import (
	"io"
	"os"
)

// CopyFile streams src to dst with default permissions (0o644), truncating
// dst if it already exists.
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// BackupFile copies path to path+".bak" when path exists. Missing files are
// not an error; the job may be producing the file for the first time.
func BackupFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return CopyFile(path, path+".bak")
}
