package driver

import (
	"fmt"
	"slices"
	"strings"

	"yulgen/internal/ast"
)

// inheritanceOrder sorts contracts so every base comes before the contracts
// deriving from it (Kahn's algorithm, ties broken by id). A cycle in the
// declared linearizations is an error.
func inheritanceOrder(decls *ast.Declarations) ([]ast.ContractID, error) {
	contracts := decls.Contracts()
	indeg := make(map[ast.ContractID]int, len(contracts))
	edges := make(map[ast.ContractID][]ast.ContractID, len(contracts))
	for _, id := range contracts {
		indeg[id] += 0
		for _, base := range decls.Contract(id).Linearized {
			if base == id {
				continue
			}
			edges[base] = append(edges[base], id)
			indeg[id]++
		}
	}

	current := make([]ast.ContractID, 0, len(contracts))
	for _, id := range contracts {
		if indeg[id] == 0 {
			current = append(current, id)
		}
	}
	slices.Sort(current)

	order := make([]ast.ContractID, 0, len(contracts))
	for len(current) > 0 {
		next := make([]ast.ContractID, 0)
		for _, id := range current {
			order = append(order, id)
			for _, to := range edges[id] {
				indeg[to]--
				if indeg[to] == 0 {
					next = append(next, to)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(order) != len(contracts) {
		var cycle []string
		for _, id := range contracts {
			if indeg[id] > 0 {
				cycle = append(cycle, decls.Contract(id).Name)
			}
		}
		return nil, fmt.Errorf("%w: inheritance cycle between %s", ErrBadUnit, strings.Join(cycle, ", "))
	}
	return order, nil
}

// checkLinearizations requires every contract to inherit the whole chain of
// each of its bases. Code of a base may use anything from its own chain.
func checkLinearizations(decls *ast.Declarations) error {
	for _, id := range decls.Contracts() {
		c := decls.Contract(id)
		for _, base := range c.Linearized[1:] {
			for _, inherited := range decls.Contract(base).Linearized {
				if !slices.Contains(c.Linearized, inherited) {
					return fmt.Errorf("%w: %s inherits %s but its linearization misses %s",
						ErrBadUnit, c.Name, decls.Contract(base).Name, decls.Contract(inherited).Name)
				}
			}
		}
	}
	return nil
}
