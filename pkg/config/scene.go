package config

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/graph"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
)

// Scene builds the scene graph for the configured solids. Every solid is a
// root; a solid with a placement is wrapped in a transform node.
func (c *Config) Scene() (*graph.SceneGraph, error) {
	g := graph.New()
	for i := range c.Solids {
		s := &c.Solids[i]
		p, err := s.Solid()
		if err != nil {
			return nil, err
		}

		id := graph.NewNodeID("defsolid/" + s.Name)
		g.AddNode(&graph.Node{
			ID:   id,
			Kind: graph.NodePrimitive,
			Name: s.Name,
			Data: graph.PrimitiveData{Params: p},
		})

		if s.Place == nil {
			g.AddRoot(id)
			continue
		}

		placeID := graph.NewNodeID("place/" + s.Name)
		g.AddNode(&graph.Node{
			ID:       placeID,
			Kind:     graph.NodeTransform,
			Children: []graph.NodeID{id},
			Data:     s.Place.transform(),
		})
		g.AddRoot(placeID)
	}
	return g, nil
}

func (p *Placement) transform() graph.TransformData {
	var td graph.TransformData
	td.Translation = vecPtr(p.At)
	td.Rotation = vecPtr(p.Rotate)
	td.Scale = vecPtr(p.Scale)
	if p.Color != nil {
		td.Color = &kernel.Color{R: p.Color[0], G: p.Color[1], B: p.Color[2], A: p.Color[3]}
	}
	return td
}

func vecPtr(a *[3]float64) *v3.Vec {
	if a == nil {
		return nil
	}
	return &v3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
