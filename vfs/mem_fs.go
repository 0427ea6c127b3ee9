// Copyright 2025 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package vfs

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// NewMem returns a new memory-backed FS implementation.
func NewMem() *MemFS {
	return &MemFS{files: make(map[string]*memFileData)}
}

// MemFS implements FS in memory. It is safe for concurrent use.
type MemFS struct {
	mu    sync.Mutex
	files map[string]*memFileData
}

var _ FS = (*MemFS)(nil)

type memFileData struct {
	name string
	mu   sync.RWMutex
	data []byte
}

func (fd *memFileData) size() int64 {
	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return int64(len(fd.data))
}

// Create implements FS.Create.
func (m *MemFS) Create(name string) (File, error) {
	name = filepath.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	fd := &memFileData{name: m.PathBase(name)}
	m.files[name] = fd
	return &memFile{fd: fd, write: true}, nil
}

// Open implements FS.Open.
func (m *MemFS) Open(name string) (File, error) {
	name = filepath.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	fd, ok := m.files[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return &memFile{fd: fd}, nil
}

// Remove implements FS.Remove.
func (m *MemFS) Remove(name string) error {
	name = filepath.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return &os.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	delete(m.files, name)
	return nil
}

// Rename implements FS.Rename.
func (m *MemFS) Rename(oldname, newname string) error {
	oldname, newname = filepath.Clean(oldname), filepath.Clean(newname)
	m.mu.Lock()
	defer m.mu.Unlock()
	fd, ok := m.files[oldname]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldname, Err: os.ErrNotExist}
	}
	delete(m.files, oldname)
	fd.name = m.PathBase(newname)
	m.files[newname] = fd
	return nil
}

// List implements FS.List.
func (m *MemFS) List(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.files {
		if filepath.Dir(name) == dir {
			names = append(names, filepath.Base(name))
		}
	}
	return names, nil
}

// Stat implements FS.Stat.
func (m *MemFS) Stat(name string) (os.FileInfo, error) {
	name = filepath.Clean(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	fd, ok := m.files[name]
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return &memFileInfo{name: fd.name, size: fd.size()}, nil
}

// PathBase implements FS.PathBase.
func (*MemFS) PathBase(path string) string {
	return filepath.Base(path)
}

// PathJoin implements FS.PathJoin.
func (*MemFS) PathJoin(elem ...string) string {
	return filepath.Join(elem...)
}

type memFile struct {
	fd     *memFileData
	offset int64
	write  bool
}

var _ File = (*memFile)(nil)

func (f *memFile) Close() error {
	return nil
}

func (f *memFile) Read(p []byte) (int, error) {
	n, err := f.ReadAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	f.fd.mu.RLock()
	defer f.fd.mu.RUnlock()
	if off >= int64(len(f.fd.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.fd.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (f *memFile) Write(p []byte) (int, error) {
	n, err := f.WriteAt(p, f.offset)
	f.offset += int64(n)
	return n, err
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	if !f.write {
		return 0, &os.PathError{Op: "write", Path: f.fd.name, Err: os.ErrPermission}
	}
	f.fd.mu.Lock()
	defer f.fd.mu.Unlock()
	if end := off + int64(len(p)); end > int64(len(f.fd.data)) {
		grown := make([]byte, end)
		copy(grown, f.fd.data)
		f.fd.data = grown
	}
	copy(f.fd.data[off:], p)
	return len(p), nil
}

func (f *memFile) Stat() (os.FileInfo, error) {
	return &memFileInfo{name: f.fd.name, size: f.fd.size()}, nil
}

func (f *memFile) Sync() error {
	return nil
}

type memFileInfo struct {
	name string
	size int64
}

var _ os.FileInfo = (*memFileInfo)(nil)

func (i *memFileInfo) Name() string       { return i.name }
func (i *memFileInfo) Size() int64        { return i.size }
func (i *memFileInfo) Mode() os.FileMode  { return 0644 }
func (i *memFileInfo) ModTime() time.Time { return time.Time{} }
func (i *memFileInfo) IsDir() bool        { return false }
func (i *memFileInfo) Sys() interface{}   { return nil }
