// Geoimport - Geospatial Dataset Import Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoimport

package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/geoimport/internal/handler"
	"github.com/tomtom215/geoimport/internal/models"
	"github.com/tomtom215/geoimport/internal/objectstore"
	"github.com/tomtom215/geoimport/internal/ogr"
)

// Store is the persistence the pipeline reports progress to.
type Store interface {
	CreateExecution(ctx context.Context, exec *models.Execution) error
	Get(ctx context.Context, id string) (*models.Execution, error)
	StartStep(ctx context.Context, id, step string) (*models.Execution, error)
	AdvanceStep(ctx context.Context, id, step string, outputs map[string]string) (*models.Execution, error)
	FailExecution(ctx context.Context, id, step string, detail *models.ErrorDetail) (*models.Execution, error)
	CompleteExecution(ctx context.Context, id string, outputs map[string]string) (*models.Execution, error)
	CancelExecution(ctx context.Context, id string) (*models.Execution, error)
	ListActive(ctx context.Context) ([]*models.Execution, error)
}

// Catalog reserves layer names and records published resources.
type Catalog interface {
	ReserveAlternate(ctx context.Context, base, execID string, overwrite bool) (string, error)
	ReleaseAlternates(ctx context.Context, execID string) error
	MarkPublished(ctx context.Context, alternate, execID string, info models.LayerInfo) error
	CreateResource(ctx context.Context, r models.Resource) (*models.Resource, error)
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	GetResourceByAlternate(ctx context.Context, alternate string) (*models.Resource, error)
}

// Datastore operates on the destination tables.
type Datastore interface {
	DropTable(ctx context.Context, table string) error
	CreateTableLike(ctx context.Context, src, dst string) error
	CopyRows(ctx context.Context, src, dst string) (int64, bool, error)
	// MergeFrom moves the staging rows into target and drops staging in
	// one transaction recorded under execID. With a key, target rows
	// matching a staged key are replaced. The bool reports an earlier merge
	// for execID, in which case nothing is changed.
	MergeFrom(ctx context.Context, execID, staging, target, key string) (int64, bool, error)
	Merged(ctx context.Context, execID string) (bool, error)
	LayerInfo(ctx context.Context, table string) (models.LayerInfo, error)
}

// Runner executes conversion commands.
type Runner interface {
	Run(ctx context.Context, cmd *ogr.Command) (*ogr.Result, error)
}

// Dispatcher queues a task for asynchronous execution.
type Dispatcher interface {
	Dispatch(ctx context.Context, task models.Task) error
}

// Authorizer decides whether a role may perform an action.
type Authorizer interface {
	Authorize(ctx context.Context, role string, action models.Action) error
}

// Dependencies are the collaborators of an Orchestrator. Stager and
// Authorizer may be nil.
type Dependencies struct {
	Registry   *handler.Registry
	Store      Store
	Catalog    Catalog
	Datastore  Datastore
	Runner     Runner
	Stager     objectstore.Stager
	Authorizer Authorizer
}

// Orchestrator drives executions through their steps.
type Orchestrator struct {
	registry   *handler.Registry
	store      Store
	catalog    Catalog
	datastore  Datastore
	runner     Runner
	stager     objectstore.Stager
	authorizer Authorizer
	dispatcher Dispatcher

	steps map[string]stepFunc

	// admitMu makes the parallelism check and the creation of the
	// execution one atomic admission within the process.
	admitMu sync.Mutex

	runningMu sync.Mutex
	running   map[string]context.CancelFunc

	now func() time.Time
}

// New creates an Orchestrator. SetDispatcher must be called before Submit.
func New(deps Dependencies) *Orchestrator {
	stager := deps.Stager
	if stager == nil {
		stager = objectstore.Noop{}
	}
	o := &Orchestrator{
		registry:   deps.Registry,
		store:      deps.Store,
		catalog:    deps.Catalog,
		datastore:  deps.Datastore,
		runner:     deps.Runner,
		stager:     stager,
		authorizer: deps.Authorizer,
		running:    make(map[string]context.CancelFunc),
		now:        time.Now,
	}
	o.steps = o.stepTable()
	return o
}

// SetDispatcher sets the queue tasks are handed to. The dispatcher in turn
// calls HandleTask, so it is wired after construction.
func (o *Orchestrator) SetDispatcher(d Dispatcher) {
	o.dispatcher = d
}

// Registry returns the handler registry.
func (o *Orchestrator) Registry() *handler.Registry {
	return o.registry
}

func (o *Orchestrator) trackRunning(id string, cancel context.CancelFunc) {
	o.runningMu.Lock()
	o.running[id] = cancel
	o.runningMu.Unlock()
}

func (o *Orchestrator) untrackRunning(id string) {
	o.runningMu.Lock()
	delete(o.running, id)
	o.runningMu.Unlock()
}

func (o *Orchestrator) isRunning(id string) bool {
	o.runningMu.Lock()
	defer o.runningMu.Unlock()
	_, ok := o.running[id]
	return ok
}

func (o *Orchestrator) cancelRunning(id string) bool {
	o.runningMu.Lock()
	cancel, ok := o.running[id]
	o.runningMu.Unlock()
	if ok {
		cancel()
	}
	return ok
}
