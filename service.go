package procwise

import (
	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/acl"
	"github.com/procwise/procwise/service/allocator"
	"github.com/procwise/procwise/service/dao"
	"github.com/procwise/procwise/service/dao/criteria"
	"github.com/procwise/procwise/service/dao/store"
	"github.com/procwise/procwise/service/directory"
	dmemory "github.com/procwise/procwise/service/directory/memory"
	"github.com/procwise/procwise/service/event"
	"github.com/procwise/procwise/service/processor"
	"github.com/procwise/procwise/service/report"
	"github.com/procwise/procwise/service/template"
)

// Service aggregates the workflow engine components behind one construction
// point. Backends default to the in-memory stores; production deployments
// swap them via options.
type Service struct {
	config           *Config
	templates        dao.Service[string, model.Template]
	processes        dao.Service[string, execution.Process]
	steps            dao.Service[string, execution.StepExecution]
	aclService       acl.Service
	directoryService directory.Service
	sequence         allocator.Sequence
	events           *event.Service

	templateService *template.Service
	engine          *processor.Service
	reports         *report.Service
}

// New creates a fully wired engine Service.
func New(options ...Option) *Service {
	ret := &Service{}
	ret.init(options)
	return ret
}

func (s *Service) init(options []Option) {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	s.templateService = template.New(s.templates, s.processes, s.steps, s.aclService, s.directoryService, s.events, s.config.Templates.DeletePolicy)
	s.engine = processor.New(s.templates, s.processes, s.steps, s.aclService, s.directoryService, s.sequence, s.events)
	s.reports = report.New(s.templates, s.processes, s.steps, s.aclService, s.directoryService)
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.templates == nil {
		s.templates = store.NewMemoryStore[string, model.Template](
			func(t *model.Template) string { return t.ID },
			store.WithCloner[string, model.Template]((*model.Template).Clone),
		)
	}
	if s.processes == nil {
		s.processes = store.NewMemoryStore[string, execution.Process](
			func(p *execution.Process) string { return p.ID },
			store.WithCloner[string, execution.Process]((*execution.Process).Clone),
			store.WithMatcher[string, execution.Process](criteria.MatchProcess),
		)
	}
	if s.steps == nil {
		s.steps = store.NewMemoryStore[string, execution.StepExecution](
			func(e *execution.StepExecution) string { return e.ID },
			store.WithCloner[string, execution.StepExecution]((*execution.StepExecution).Clone),
			store.WithMatcher[string, execution.StepExecution](criteria.MatchStep),
		)
	}
	if s.aclService == nil {
		s.aclService = acl.NewMemory()
	}
	if s.directoryService == nil {
		s.directoryService = dmemory.New()
	}
	if s.sequence == nil {
		s.sequence = allocator.NewMemory(0)
	}
	if s.events == nil {
		s.events = event.New(nil)
	}
}

// Config returns the active configuration.
func (s *Service) Config() *Config { return s.config }

// Templates returns the template store component.
func (s *Service) Templates() *template.Service { return s.templateService }

// Engine returns the instance engine.
func (s *Service) Engine() *processor.Service { return s.engine }

// Reports returns the report builder.
func (s *Service) Reports() *report.Service { return s.reports }

// ACL returns the template access-control service.
func (s *Service) ACL() acl.Service { return s.aclService }

// Directory returns the user/client directory.
func (s *Service) Directory() directory.Service { return s.directoryService }

// Events returns the lifecycle event service.
func (s *Service) Events() *event.Service { return s.events }
