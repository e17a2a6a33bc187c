package index

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/rstls/pkg/diagnostic"
	"github.com/walteh/rstls/pkg/document"
	"github.com/walteh/rstls/pkg/entity"
	"github.com/walteh/rstls/pkg/parser"
)

var ErrStaleVersion = errors.Base("stale document version")

// Project represents the documents and entities of an open workspace. All
// methods are safe for concurrent use and observe one event at a time.
type Project struct {
	mu sync.Mutex

	id        string
	parser    *parser.Parser
	entities  *Entities
	documents map[string]*document.Document
}

func NewProject(p *parser.Parser) *Project {
	return &Project{
		id:        uuid.NewString(),
		parser:    p,
		entities:  NewEntities(p),
		documents: make(map[string]*document.Document),
	}
}

// ID identifies the session in logs.
func (p *Project) ID() string {
	return p.id
}

func (p *Project) logger(ctx context.Context, uri string) *zerolog.Logger {
	l := zerolog.Ctx(ctx).With().Str("project", p.id).Str("uri", uri).Logger()
	return &l
}

// AddDocument stores doc and seeds the index with its targets only. It is
// used for documents seen for the first time; references are added by
// UpdateDocument once every document's targets are known.
func (p *Project) AddDocument(ctx context.Context, doc *document.Document) []diagnostic.Diagnostic {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.documents[doc.URI] = doc
	diags := p.entities.AddDocumentTargets(ctx, doc)

	p.logger(ctx, doc.URI).Debug().Int32("version", doc.Version).Int("diagnostics", len(diags)).Msg("document added")
	return diags
}

// UpdateDocument replaces the snapshot of doc, retracts everything the
// previous version contributed and adds its targets and references again.
// A version lower than the stored one is rejected with ErrStaleVersion.
func (p *Project) UpdateDocument(ctx context.Context, doc *document.Document) ([]diagnostic.Diagnostic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if prev, ok := p.documents[doc.URI]; ok && doc.Version < prev.Version {
		return nil, errors.Errorf("updating %s to version %d below %d: %w", doc.URI, doc.Version, prev.Version, ErrStaleVersion)
	}

	p.documents[doc.URI] = doc
	p.entities.OnDocumentRemoved(doc.URI)

	diags := p.entities.AddDocumentTargets(ctx, doc)
	diags = append(diags, p.entities.AddDocumentReferences(ctx, doc)...)

	p.logger(ctx, doc.URI).Debug().Int32("version", doc.Version).Int("diagnostics", len(diags)).Msg("document updated")
	return diags, nil
}

// RemoveDocument retracts the entities of uri, drops its snapshot and its
// cached tree. It reports whether the document was known.
func (p *Project) RemoveDocument(ctx context.Context, uri string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entities.OnDocumentRemoved(uri)
	p.parser.Evict(uri)
	_, ok := p.documents[uri]
	delete(p.documents, uri)

	p.logger(ctx, uri).Debug().Bool("known", ok).Msg("document removed")
	return ok
}

func (p *Project) GetDocument(uri string) (*document.Document, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	doc, ok := p.documents[uri]
	return doc, ok
}

func (p *Project) DocumentCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.documents)
}

func (p *Project) GetDeclaration(name string) (entity.Entity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.entities.GetDeclaration(name)
}

func (p *Project) GetReferences(name string) []entity.Entity {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.entities.GetReferences(name)
}

func (p *Project) GetEntitiesInDocument(uri string) ([]entity.Entity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.entities.GetEntitiesInDocument(uri)
}

// Declarations returns every target sorted by name.
func (p *Project) Declarations() []entity.Entity {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.entities.Declarations()
}

// FindSections returns the section outline of doc.
func (p *Project) FindSections(ctx context.Context, doc *document.Document) []entity.SectionEntity {
	return p.parser.FindSections(ctx, doc)
}
