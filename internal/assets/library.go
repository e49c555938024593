package assets

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"duskhollow/server/internal/graph"
	"duskhollow/server/internal/loader"
	"duskhollow/server/logging"
)

//go:embed graphs/*.json
var embedded embed.FS

const EventTemplateLoaded logging.EventType = "assets.template_loaded"

// Library resolves template ids to compiled templates. Templates are
// immutable, so handing out the shared pointer is safe; a Reload swaps the
// whole catalog but leaves templates already bound to runners untouched
// until the owner rebinds explicitly.
type Library struct {
	mu        sync.RWMutex
	templates map[string]*graph.Template
	pub       logging.Publisher
}

// LoadEmbedded compiles the documents shipped inside the binary.
func LoadEmbedded(pub logging.Publisher) (*Library, error) {
	return LoadFrom(embedded, "graphs", pub)
}

// LoadFrom compiles every *.json document in a directory of the given
// filesystem. Any document with validation errors fails the whole load;
// shipped content is expected to be clean.
func LoadFrom(fsys fs.FS, dir string, pub logging.Publisher) (*Library, error) {
	if pub == nil {
		pub = logging.NopPublisher()
	}
	lib := &Library{pub: pub}
	templates, err := compileDir(fsys, dir, pub)
	if err != nil {
		return nil, err
	}
	lib.templates = templates
	return lib, nil
}

// Reload recompiles from a filesystem and swaps the catalog.
func (l *Library) Reload(fsys fs.FS, dir string) error {
	templates, err := compileDir(fsys, dir, l.pub)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.templates = templates
	l.mu.Unlock()
	return nil
}

func compileDir(fsys fs.FS, dir string, pub logging.Publisher) (map[string]*graph.Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("assets: read %s: %w", dir, err)
	}
	templates := make(map[string]*graph.Template, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".json")
		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("assets: read %s: %w", entry.Name(), err)
		}
		tpl, msgs, err := loader.Load(data)
		if err != nil {
			return nil, fmt.Errorf("assets: compile %s: %w (%v)", entry.Name(), err, msgs)
		}
		for _, m := range msgs {
			pub.Publish(context.Background(), logging.Event{
				Type:     EventTemplateLoaded,
				Severity: logging.SeverityWarn,
				Category: logging.CategoryAssets,
				Subject:  logging.EntityRef{ID: id, Kind: logging.EntityKindTemplate},
				Payload:  map[string]any{"finding": m.String()},
			})
		}
		templates[id] = tpl
	}
	return templates, nil
}

// Resolve returns the template registered under an id.
func (l *Library) Resolve(id string) (*graph.Template, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tpl, ok := l.templates[id]
	return tpl, ok
}

// IDs returns the catalog's template ids in sorted order.
func (l *Library) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.templates))
	for id := range l.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
