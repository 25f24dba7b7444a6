package service

import (
	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

// DocumentService exposes generated documents for review and manual editing.
type DocumentService struct {
	store  storage.Store
	logger Logger
}

func NewDocumentService(store storage.Store, logger Logger) *DocumentService {
	return &DocumentService{store: store, logger: logger}
}

func (s *DocumentService) Get(id int64) (models.Document, error) {
	return s.store.GetDocument(id)
}

func (s *DocumentService) ListByEmployee(employeeID int64) ([]models.Document, error) {
	return s.store.ListDocumentsByEmployee(employeeID)
}

// UpdateContent replaces the document text and bumps its version by one.
// Edits are how a reviewer fixes a draft after a rejection or revision
// request.
func (s *DocumentService) UpdateContent(id int64, content string) (models.Document, error) {
	if content == "" {
		return models.Document{}, errors.New("document content must not be empty")
	}
	if err := s.store.UpdateDocumentContent(id, content); err != nil {
		return models.Document{}, err
	}
	doc, err := s.store.GetDocument(id)
	if err != nil {
		return models.Document{}, err
	}
	s.logger.Infof("Document %d edited, now at version %d", id, doc.Version)
	return doc, nil
}
