package lsp

import (
	"sort"
	"sync"
)

// OpenDocument is a document the client currently has open.
type OpenDocument struct {
	URI        string
	LanguageID string
	Version    int32
}

// DocumentManager tracks which documents are open in the client. Their
// text lives in the index; closing one hands it back to the disk copy.
type DocumentManager struct {
	store *sync.Map // map[string]*OpenDocument
}

func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		store: &sync.Map{},
	}
}

func (m *DocumentManager) Get(uri string) (*OpenDocument, bool) {
	v, ok := m.store.Load(uri)
	if !ok {
		return nil, false
	}
	return v.(*OpenDocument), true
}

func (m *DocumentManager) Store(doc *OpenDocument) {
	m.store.Store(doc.URI, doc)
}

// SetVersion records a new version for an open document.
func (m *DocumentManager) SetVersion(uri string, version int32) {
	if doc, ok := m.Get(uri); ok {
		m.store.Store(uri, &OpenDocument{URI: uri, LanguageID: doc.LanguageID, Version: version})
	}
}

func (m *DocumentManager) Delete(uri string) bool {
	_, ok := m.store.LoadAndDelete(uri)
	return ok
}

// URIs lists the open documents in sorted order.
func (m *DocumentManager) URIs() []string {
	var uris []string
	m.store.Range(func(k, _ any) bool {
		uris = append(uris, k.(string))
		return true
	})
	sort.Strings(uris)
	return uris
}
