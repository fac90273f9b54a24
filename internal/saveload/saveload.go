package saveload

import (
	"fmt"
	"log/slog"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/nlupugla/saveload/internal/variant"
)

// Saveload builds snapshots of the tracked objects of a host and applies
// them back.
type Saveload struct {
	host     Host
	registry *Registry
	logger   *slog.Logger
	fs       billy.Filesystem
	hostFS   bool
	version  uint32
}

// Option configures a Saveload.
type Option func(*Saveload)

// WithLogger sets the logger for warnings and progress. Default:
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Saveload) {
		s.logger = l
	}
}

// WithFilesystem sets the filesystem Save and Load use. Default: the host
// filesystem rooted at "/".
func WithFilesystem(fs billy.Filesystem) Option {
	return func(s *Saveload) {
		s.fs = fs
	}
}

// WithFormatVersion sets the version written by Serialize. Version 0 writes
// the length-prefixed form of the original addon's save files.
func WithFormatVersion(v uint32) Option {
	return func(s *Saveload) {
		s.version = v
	}
}

// New creates a Saveload over host with an empty registry.
func New(host Host, opts ...Option) *Saveload {
	s := &Saveload{
		host:    host,
		logger:  slog.Default(),
		version: FormatVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fs == nil {
		s.fs = osfs.New("/")
		s.hostFS = true
	}
	s.registry = NewRegistry(host.ObjectFromID, s.logger)
	return s
}

// Registry returns the registry of tracked objects.
func (s *Saveload) Registry() *Registry { return s.registry }

// Logger returns the configured logger.
func (s *Saveload) Logger() *slog.Logger { return s.logger }

func (s *Saveload) newReport() *Report { return NewReport(s.logger) }

// Build captures every live tracked object into a new snapshot. Objects whose
// path cannot be computed are skipped with a resolution warning.
func (s *Saveload) Build() (*State, *Report) {
	r := s.newReport()
	state := NewState()

	for _, sp := range s.registry.Spawners(r) {
		path, ok := s.pathOf(sp, r)
		if !ok {
			continue
		}
		state.Spawners[path] = sp.SpawnerState(r)
	}
	for _, sy := range s.registry.Synchers(r) {
		path, ok := s.pathOf(sy, r)
		if !ok {
			continue
		}
		state.Synchers[path] = sy.SyncherState(r)
	}

	s.logger.Debug("snapshot built",
		"spawners", len(state.Spawners),
		"synchers", len(state.Synchers),
		"warnings", r.Len(),
	)
	return state, r
}

func (s *Saveload) pathOf(obj Object, r *Report) (string, bool) {
	path, err := s.host.PathTo(obj)
	if err != nil {
		r.Add(&Error{
			Code:    ErrCodeResolution,
			Message: fmt.Sprintf("cannot compute path of object %d", obj.InstanceID()),
			Err:     err,
		})
		return "", false
	}
	return path.String(), true
}

// Apply restores state onto the live tree. Spawner entries are applied
// first, parents before children, so that spawned children exist before
// their own syncher entries are applied. Unresolvable paths and objects
// that lack the addressed role are skipped with a warning.
func (s *Saveload) Apply(state *State) *Report {
	r := s.newReport()
	if state == nil {
		return r
	}

	for _, path := range state.SpawnerPaths() {
		obj, ok := s.objectAt(path, RoleSpawner, r)
		if !ok {
			continue
		}
		obj.(Spawner).LoadSpawnerState(state.Spawners[path], r)
	}
	for _, path := range state.SyncherPaths() {
		obj, ok := s.objectAt(path, RoleSyncher, r)
		if !ok {
			continue
		}
		obj.(Syncher).SetSyncherState(state.Synchers[path], r)
	}

	s.logger.Debug("snapshot applied",
		"spawners", len(state.Spawners),
		"synchers", len(state.Synchers),
		"warnings", r.Len(),
	)
	return r
}

func (s *Saveload) objectAt(path string, role Role, r *Report) (Object, bool) {
	obj, ok := s.host.ObjectAt(variant.ParseNodePath(path))
	if !ok || obj == nil {
		r.Add(&Error{
			Code:    ErrCodeResolution,
			Message: fmt.Sprintf("no object for %s entry", role),
			Path:    path,
		})
		return nil, false
	}
	if !hasRole(obj, role) {
		r.Add(&Error{
			Code:    ErrCodeConfig,
			Message: fmt.Sprintf("object is not a %s", role),
			Path:    path,
		})
		return nil, false
	}
	return obj, true
}
