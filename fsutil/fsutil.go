// Package fsutil assembles benchmark run directories. A Transaction
// batches filesystem operations against a root directory and keeps the
// first error; subsequent operations become no-ops, so a sequence of
// steps can be written without per-call error checks.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path"
)

// Path is a filesystem path, possibly relative to a transaction root.
type Path string

// Join appends a literal path component.
func (pt Path) Join(part string) Path {
	return Path(path.Join(string(pt), part))
}

// JoinP appends another Path.
func (pt Path) JoinP(part Path) Path {
	return Path(path.Join(string(pt), string(part)))
}

// JoinF appends a formatted path component.
func (pt Path) JoinF(format string, args ...interface{}) Path {
	return Path(path.Join(string(pt), fmt.Sprintf(format, args...)))
}

func (pt Path) String() string {
	return string(pt)
}

// Transaction accumulates filesystem operations rooted at Root. The
// first failure is recorded in Err and short-circuits everything after
// it.
type Transaction struct {
	Root Path
	Err  error
}

// Exists reports whether a file or directory exists under the root.
func (tr *Transaction) Exists(file Path) bool {
	if tr.Err != nil {
		return false
	}
	_, err := os.Stat(tr.Root.JoinP(file).String())
	if err != nil && !os.IsNotExist(err) {
		tr.Err = fmt.Errorf("stat `%s`: %w", file, err)
	}
	return err == nil
}

// MkDir creates a directory (and any missing parents) under the root.
func (tr *Transaction) MkDir(dir Path) {
	if tr.Err != nil {
		return
	}
	if err := os.MkdirAll(tr.Root.JoinP(dir).String(), 0o755); err != nil {
		tr.Err = fmt.Errorf("mkdir `%s`: %w", dir, err)
	}
}

// Link creates a symbolic link at `to` pointing to the absolute path
// `from`. Linking is used instead of copying for the large static
// inputs of a run (model binaries, climatology data).
func (tr *Transaction) Link(from, to Path) {
	if tr.Err != nil {
		return
	}
	target := tr.Root.JoinP(to).String()
	if _, err := os.Lstat(target); err == nil {
		// Rebuilding an existing run directory refreshes the links.
		if err := os.Remove(target); err != nil {
			tr.Err = fmt.Errorf("relink `%s`: %w", to, err)
			return
		}
	}
	if err := os.Symlink(from.String(), target); err != nil {
		tr.Err = fmt.Errorf("link `%s` -> `%s`: %w", from, to, err)
	}
}

// Copy duplicates a file into the run directory.
func (tr *Transaction) Copy(from, to Path) {
	if tr.Err != nil {
		return
	}

	source, err := os.Open(from.String())
	if err != nil {
		tr.Err = fmt.Errorf("copy `%s`: %w", from, err)
		return
	}
	defer source.Close()

	target, err := os.OpenFile(tr.Root.JoinP(to).String(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		tr.Err = fmt.Errorf("copy to `%s`: %w", to, err)
		return
	}
	defer target.Close()

	if _, err := io.Copy(target, source); err != nil {
		tr.Err = fmt.Errorf("copy `%s` -> `%s`: %w", from, to, err)
	}
}

// WriteString writes content to a file under the root.
func (tr *Transaction) WriteString(file Path, content string) {
	if tr.Err != nil {
		return
	}
	if err := os.WriteFile(tr.Root.JoinP(file).String(), []byte(content), 0o644); err != nil {
		tr.Err = fmt.Errorf("write `%s`: %w", file, err)
	}
}

// RmDir removes a directory tree under the root.
func (tr *Transaction) RmDir(dir Path) {
	if tr.Err != nil {
		return
	}
	if err := os.RemoveAll(tr.Root.JoinP(dir).String()); err != nil {
		tr.Err = fmt.Errorf("rmdir `%s`: %w", dir, err)
	}
}

// RmFile removes a single file under the root; a missing file is not an
// error.
func (tr *Transaction) RmFile(file Path) {
	if tr.Err != nil {
		return
	}
	if err := os.Remove(tr.Root.JoinP(file).String()); err != nil && !os.IsNotExist(err) {
		tr.Err = fmt.Errorf("rm `%s`: %w", file, err)
	}
}
