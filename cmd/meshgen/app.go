package main

import (
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/engine"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/export"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/meshcache"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/tessellate"
)

// App runs the script pipeline: source, scene graph, world meshes.
type App struct {
	engine *engine.Engine
	tess   *tessellate.Tessellator
}

// NewApp creates an App whose tessellator draws on cache. A nil cache gets
// a private one.
func NewApp(cache *meshcache.Cache) *App {
	return &App{
		engine: engine.NewEngine(),
		tess:   tessellate.New(cache),
	}
}

// Build evaluates source and tessellates the resulting scene. Meshes are
// nil whenever the result carries errors; the error return is reserved for
// fatal evaluation failures and tessellation errors.
func (a *App) Build(source string) ([]*kernel.Mesh, *engine.EvalResult, error) {
	res, err := a.engine.Run(source)
	if err != nil {
		return nil, nil, err
	}
	if !res.OK() {
		return nil, res, nil
	}

	meshes, err := a.tess.Tessellate(res.Graph)
	if err != nil {
		return nil, res, err
	}
	return meshes, res, nil
}

// Evaluate takes Lisp source and returns mesh data plus diagnostics in a
// single JSON-ready document. It never fails; every problem becomes an
// entry in Errors.
func (a *App) Evaluate(source string) *export.Document {
	doc := export.NewDocument()

	meshes, res, err := a.Build(source)
	if res != nil {
		for _, e := range res.Errors {
			doc.Errors = append(doc.Errors, export.Diagnostic{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		for _, w := range res.Warnings {
			doc.Warnings = append(doc.Warnings, export.Diagnostic{Line: w.Line, Col: w.Col, Message: w.Message})
		}
	}
	if err != nil {
		log.Errorf("evaluate: %v", err)
		msg := err.Error()
		if res != nil {
			msg = "tessellation failed: " + msg
		}
		doc.Errors = append(doc.Errors, export.Diagnostic{Message: msg})
		return doc
	}

	doc.Meshes = export.FromMeshes(meshes)
	return doc
}
