package sshclient

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// ClasspathPrefix marks a path that is resolved against Config.Resources
// instead of the local file system.
const ClasspathPrefix = "classpath:"

// resources resolves configured paths to local files. Classpath entries are
// copied once to temporary files that live until cleanup.
type resources struct {
	fsys fs.FS

	mu   sync.Mutex
	temp map[string]string
}

func newResources(fsys fs.FS) *resources {
	return &resources{fsys: fsys, temp: make(map[string]string)}
}

// file returns a local path holding the content of p.
func (r *resources) file(p string) (string, error) {
	name, ok := strings.CutPrefix(p, ClasspathPrefix)
	if !ok {
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.temp[p]; ok {
		return t, nil
	}

	src, err := r.fsys.Open(strings.TrimPrefix(name, "/"))
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "citrus-ssh-*.res")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(dst.Name())
		return "", err
	}
	r.temp[p] = dst.Name()
	return dst.Name(), nil
}

// cleanup removes the temporary copies made so far.
func (r *resources) cleanup() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for p, t := range r.temp {
		if err := os.Remove(t); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
		delete(r.temp, p)
	}
	return errors.Join(errs...)
}
