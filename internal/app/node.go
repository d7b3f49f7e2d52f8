package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/quill/internal/adapters/cas"       //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/adapters/export"    //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/adapters/fs"        //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/quill/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			cas.NodeID,
			fs.WorldNodeID,
			telemetry.TracerNodeID,
			telemetry.BridgeNodeID,
			export.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.CompileInfoStore](ctx)
	if err != nil {
		return nil, err
	}

	world, err := graft.Dep[ports.InvalidatingWorld](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	bridge, err := graft.Dep[*telemetry.Bridge](ctx)
	if err != nil {
		return nil, err
	}

	exporters, err := graft.Dep[export.Set](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, store, world, tracer, exporters).
		WithWatcher(w).
		WithTraceSwitch(bridge).
		WithStateDir(cas.DefaultDir), nil
}
