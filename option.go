package procwise

import (
	"github.com/procwise/procwise/model"
	"github.com/procwise/procwise/runtime/execution"
	"github.com/procwise/procwise/service/acl"
	"github.com/procwise/procwise/service/allocator"
	"github.com/procwise/procwise/service/dao"
	"github.com/procwise/procwise/service/directory"
	"github.com/procwise/procwise/service/event"
)

// Option configures the engine Service.
type Option func(s *Service)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithTemplateDAO sets the template store backend.
func WithTemplateDAO(templates dao.Service[string, model.Template]) Option {
	return func(s *Service) { s.templates = templates }
}

// WithProcessDAO sets the process store backend.
func WithProcessDAO(processes dao.Service[string, execution.Process]) Option {
	return func(s *Service) { s.processes = processes }
}

// WithStepDAO sets the step-execution store backend.
func WithStepDAO(steps dao.Service[string, execution.StepExecution]) Option {
	return func(s *Service) { s.steps = steps }
}

// WithACL sets the template access-control backend.
func WithACL(aclService acl.Service) Option {
	return func(s *Service) { s.aclService = aclService }
}

// WithDirectory injects the external user/client directory.
func WithDirectory(directoryService directory.Service) Option {
	return func(s *Service) { s.directoryService = directoryService }
}

// WithSequence sets the process-number allocator.
func WithSequence(sequence allocator.Sequence) Option {
	return func(s *Service) { s.sequence = sequence }
}

// WithEventService sets the lifecycle event service.
func WithEventService(events *event.Service) Option {
	return func(s *Service) { s.events = events }
}
