package uploads

import (
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local keeps uploads in a directory and serves them under URLPrefix
type Local struct {
	Dir       string
	URLPrefix string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{Dir: dir, URLPrefix: "/img/"}, nil
}

func (l *Local) Save(ctx context.Context, key string, contentType string, body io.Reader, size int64) (string, error) {
	dest := filepath.Join(l.Dir, filepath.FromSlash(key))
	if !strings.HasPrefix(dest, filepath.Clean(l.Dir)+string(filepath.Separator)) {
		return "", os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path.Join(l.URLPrefix, key), nil
}

// Handler serves the saved files.  Mount it at URLPrefix.
func (l *Local) Handler() http.Handler {
	return http.StripPrefix(strings.TrimSuffix(l.URLPrefix, "/"), http.FileServer(http.Dir(l.Dir)))
}
