package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Filesystem confines every operation to a directory through os.Root, so
// names cannot escape it with ".." or symlinks.
type Filesystem struct {
	root *os.Root
}

func newFilesystem(dir string) (*Filesystem, error) {
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, err
	}
	return &Filesystem{root: root}, nil
}

func (f *Filesystem) Close() error {
	return f.root.Close()
}

func (f *Filesystem) Open(name string) (File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (f *Filesystem) Create(name string) (File, error) {
	file, err := f.root.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (f *Filesystem) MkdirAll(path string, perm fs.FileMode) error {
	// end of recursion
	if path == "" || path == "." || path == "/" {
		return nil
	}

	err := f.root.Mkdir(path, perm)
	if err == nil || errors.Is(err, fs.ErrExist) {
		return nil
	}

	// if it failed, try w/ parent
	err = f.MkdirAll(filepath.Dir(path), perm)
	if err != nil {
		return err
	}

	err = f.root.Mkdir(path, perm)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}
	return nil
}

func (f *Filesystem) Remove(name string) error {
	return f.root.Remove(name)
}
