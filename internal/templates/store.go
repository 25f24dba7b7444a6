package templates

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/zerotouch/onboard/pkg/models"
	"github.com/zerotouch/onboard/pkg/storage"
)

// Store resolves prompt templates (built-in defaults plus operator
// overrides) and jurisdiction templates (persisted per code and document
// kind). A missing jurisdiction template is not an error; callers get the
// zero value and generate with standard terms.
type Store struct {
	backend   storage.Store
	mu        sync.RWMutex
	overrides map[string]string
}

func NewStore(backend storage.Store) *Store {
	return &Store{
		backend:   backend,
		overrides: make(map[string]string),
	}
}

// GetTemplate returns the override for key if registered, else the built-in
// default.
func (s *Store) GetTemplate(key string) (string, error) {
	s.mu.RLock()
	override, ok := s.overrides[key]
	s.mu.RUnlock()
	if ok {
		return override, nil
	}
	def, ok := defaults[key]
	if !ok {
		return "", errors.Errorf("unknown prompt template %q", key)
	}
	return def, nil
}

// SetOverride replaces the template text used for key.
func (s *Store) SetOverride(key, text string) {
	s.mu.Lock()
	s.overrides[key] = text
	s.mu.Unlock()
}

// GetJurisdictionTemplate looks up the template content and legal
// requirements for a (jurisdiction, document kind) pair. found is false
// when no template exists for the pair.
func (s *Store) GetJurisdictionTemplate(code string, kind models.DocumentKind) (content, legalRequirements string, found bool, err error) {
	t, err := s.backend.GetJurisdictionTemplate(code, kind)
	if errors.Is(err, storage.ErrNotFound) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	return t.TemplateContent, t.LegalRequirements, true, nil
}

// JurisdictionName resolves a jurisdiction code to a display name. Unknown
// codes pass through verbatim.
func JurisdictionName(code string) string {
	if name, ok := jurisdictionNames[code]; ok {
		return name
	}
	return code
}

var jurisdictionNames = map[string]string{
	"US": "United States",
	"UK": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"IN": "India",
	"CA": "Canada",
	"AU": "Australia",
	"SG": "Singapore",
}
