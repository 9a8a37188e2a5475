package core

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hdlkit/orbit/internal/diag"
)

// copyTree recursively copies every regular file under src into dst,
// preserving relative paths and file mode bits, creating dst and any
// intermediate directories as needed. Used to stage a scratch copy of an
// IP's tree before the Dynamic Symbol Transform rewrites it in place (spec
// §4.F) — the original on disk, or in its existing cache slot, is never
// touched.
func copyTree(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target, info.Mode())
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return diag.IoFailure{Path: src, Cause: err}
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return diag.IoFailure{Path: dst, Cause: err}
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return diag.IoFailure{Path: dst, Cause: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return diag.IoFailure{Path: dst, Cause: err}
	}
	return nil
}
