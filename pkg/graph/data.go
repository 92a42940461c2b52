package graph

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/kernel"
	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

// PrimitiveData carries the generator parameters of one solid. The mesh is
// produced in the solid's local frame; placement comes from enclosing
// transform nodes.
type PrimitiveData struct {
	Params solid.Params `json:"params"`
}

func (PrimitiveData) nodeData() {}

// Shape returns the solid family name, or "" when Params is unset.
func (d PrimitiveData) Shape() string {
	if d.Params == nil {
		return ""
	}
	return d.Params.Shape()
}

// TransformData places its single child. Created by the (place ...) form.
// Nil fields leave the child unchanged.
type TransformData struct {
	Translation *v3.Vec       `json:"translation,omitempty"`
	Rotation    *v3.Vec       `json:"rotation,omitempty"` // heading, pitch, roll in degrees
	Scale       *v3.Vec       `json:"scale,omitempty"`
	Color       *kernel.Color `json:"color,omitempty"`
}

func (TransformData) nodeData() {}

// GroupData represents a logical grouping. Created by the (assembly ...)
// form.
type GroupData struct {
	Description string `json:"description,omitempty"`
}

func (GroupData) nodeData() {}
