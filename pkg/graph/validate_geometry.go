package graph

import (
	"fmt"
	"sort"

	"github.com/taKana671/WalkingInBulletWorld-sub000/pkg/solid"
)

// validateGeometry runs the geometric checks. Parameters that pass
// Validate can still describe a surface that passes through itself; such
// meshes are generated as asked, so these findings are advisory.
func validateGeometry(g *SceneGraph) []ValidationWarning {
	var warnings []ValidationWarning
	warnings = append(warnings, validateRingSection(g)...)
	warnings = append(warnings, validateRingTurns(g)...)
	return warnings
}

// rings returns every ring primitive, ordered by node ID so warnings come
// out in a stable order.
func rings(g *SceneGraph) []*Node {
	var out []*Node
	for _, node := range g.Nodes {
		if node.Kind != NodePrimitive {
			continue
		}
		if pd, ok := node.Data.(PrimitiveData); ok {
			if _, ok := pd.Params.(solid.RingParams); ok {
				out = append(out, node)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func label(n *Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID.Short()
}

// validateRingSection warns when the cross-section is wider than the ring,
// so the inner side of the tube crosses the axis.
func validateRingSection(g *SceneGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range rings(g) {
		p := node.Data.(PrimitiveData).Params.(solid.RingParams)
		if p.SectionRadius > p.RingRadius {
			warnings = append(warnings, ValidationWarning{
				NodeID: node.ID,
				Message: fmt.Sprintf(
					"ring %q self-intersects: section radius %.4g exceeds ring radius %.4g",
					label(node), p.SectionRadius, p.RingRadius,
				),
			})
		}
	}

	return warnings
}

// validateRingTurns warns when a ring reaches its starting angle again and
// the rise over one revolution is less than the section diameter, so the
// later turn overlaps the earlier one.
func validateRingTurns(g *SceneGraph) []ValidationWarning {
	var warnings []ValidationWarning

	for _, node := range rings(g) {
		p := node.Data.(PrimitiveData).Params.(solid.RingParams)
		steps := p.Count
		if steps == 0 {
			steps = p.Segments
		}

		// a flat closed torus meets itself exactly at the seam
		wraps := steps > p.Segments || (steps == p.Segments && p.Slope > 0)
		if !wraps {
			continue
		}

		pitch := p.Slope * float64(p.Segments)
		if pitch < 2*p.SectionRadius {
			warnings = append(warnings, ValidationWarning{
				NodeID: node.ID,
				Message: fmt.Sprintf(
					"ring %q turns overlap: rise per revolution %.4g is less than section diameter %.4g",
					label(node), pitch, 2*p.SectionRadius,
				),
			})
		}
	}

	return warnings
}
