// Package fs implements a filesystem-backed template store for single-node
// deployments that want durable templates without PostgreSQL. Each template
// is one JSON document under the base URL, addressable by any scheme the
// afs service understands.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/service/dao"
)

// Service implements dao.Service for templates on top of afs.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ dao.Service[string, model.Template] = (*Service)(nil)

// New creates a template store rooted at baseURL.
func New(baseURL string) *Service {
	return &Service{baseURL: baseURL, fs: afs.New()}
}

// Save persists a template as a JSON document.
func (s *Service) Save(ctx context.Context, t *model.Template) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal template: %w", err)
	}
	location := s.templateURL(t.ID)
	if err = s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save template to %s: %w", location, err)
	}
	return nil
}

// Load retrieves a template document.
func (s *Service) Load(ctx context.Context, id string) (*model.Template, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	location := s.templateURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to check template existence: %w", err)
	}
	if !exists {
		return nil, dao.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	var t model.Template
	if err = json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal template: %w", err)
	}
	return &t, nil
}

// Delete removes a template document.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	location := s.templateURL(id)
	exists, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("failed to check template existence: %w", err)
	}
	if !exists {
		return dao.ErrNotFound
	}
	return s.fs.Delete(ctx, location)
}

// List returns every stored template.
func (s *Service) List(ctx context.Context, _ ...*dao.Parameter) ([]*model.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, url.Join(s.baseURL, "templates"), option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	var out []*model.Template
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, downloadErr := s.fs.DownloadWithURL(ctx, object.URL())
		if downloadErr != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", object.URL(), downloadErr)
		}
		var t model.Template
		if err = json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to unmarshal template %s: %w", object.URL(), err)
		}
		out = append(out, &t)
	}
	return out, nil
}

func (s *Service) templateURL(id string) string {
	return url.Join(s.baseURL, path.Join("templates", id+".json"))
}
