package workspace

import (
	"path/filepath"
	"strconv"
	"sync"

	"github.com/editorconfig/editorconfig-core-go/v2"
	"github.com/spf13/afero"
)

const (
	defaultTabWidth = 8
	editorconfigName = ".editorconfig"
)

// tabWidths resolves tab_width from .editorconfig files on an afero
// filesystem. Parsed files are cached by directory.
type tabWidths struct {
	fs    afero.Fs
	mu    sync.Mutex
	files map[string]*editorconfig.Editorconfig
}

func newTabWidths(fs afero.Fs) *tabWidths {
	return &tabWidths{fs: fs, files: map[string]*editorconfig.Editorconfig{}}
}

// lookup walks from the file's directory to the filesystem root. The
// nearest file that sets a width wins; a file marked root = true ends the
// search.
func (t *tabWidths) lookup(path string) int {
	dir := filepath.Dir(path)
	for {
		if ec := t.load(dir); ec != nil {
			rel, err := filepath.Rel(dir, path)
			if err == nil {
				if width := widthOf(ec, "/"+filepath.ToSlash(rel)); width > 0 {
					return width
				}
			}
			if ec.Root {
				return defaultTabWidth
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return defaultTabWidth
		}
		dir = parent
	}
}

func (t *tabWidths) load(dir string) *editorconfig.Editorconfig {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ec, ok := t.files[dir]; ok {
		return ec
	}

	var ec *editorconfig.Editorconfig
	if f, err := t.fs.Open(filepath.Join(dir, editorconfigName)); err == nil {
		ec, err = editorconfig.Parse(f)
		f.Close()
		if err != nil {
			ec = nil
		}
	}
	t.files[dir] = ec
	return ec
}

func widthOf(ec *editorconfig.Editorconfig, name string) int {
	def, err := ec.GetDefinitionForFilename(name)
	if err != nil || def == nil {
		return 0
	}
	if def.TabWidth > 0 {
		return def.TabWidth
	}
	// tab_width defaults to indent_size
	if n, err := strconv.Atoi(def.IndentSize); err == nil && n > 0 {
		return n
	}
	return 0
}
