package handler

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"filehttpd/internal/status"
)

// DefaultDocument is served for a bare "/".
const DefaultDocument = "/homepage.html"

var ErrNotDirectory = errors.New("document root is not a directory")

// GetHandler resolves GET arguments against a document root.
type GetHandler struct {
	dir  string
	root *os.Root
}

// Document is a resolved, opened file ready to be streamed.
type Document struct {
	// Path is the argument after the default-document rewrite.
	Path string
	Size int64
	file *os.File
}

func (d *Document) Read(p []byte) (int, error) { return d.file.Read(p) }

func (d *Document) Close() error { return d.file.Close() }

// NewGetHandler opens dir as the document root. Files are opened through an
// os.Root, so nothing outside dir is reachable, symlinks included.
func NewGetHandler(dir string) (*GetHandler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("document root: %w", err)
	}
	return &GetHandler{dir: dir, root: root}, nil
}

func (g *GetHandler) Dir() string { return g.dir }

func (g *GetHandler) Close() error { return g.root.Close() }

// Resolve decides whether argument names a servable file. On status.OK the
// returned Document is open and the caller must close it; on any other
// status it is nil.
func (g *GetHandler) Resolve(argument string) (*Document, status.Status) {
	if argument == "/" {
		argument = DefaultDocument
	}

	if !strings.HasPrefix(argument, "/") {
		return nil, status.InvalidFilename
	}

	// "..", symlinks included, may move around inside the root; the
	// os.Root refuses to open anything that ends up outside it.
	name := strings.TrimLeft(argument, "/")
	if name == "" {
		name = "."
	}

	f, err := g.root.Open(name)
	if err != nil {
		return nil, status.FileNotFound
	}

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = f.Close()
		return nil, status.FileNotFound
	}

	return &Document{Path: argument, Size: info.Size(), file: f}, status.OK
}
