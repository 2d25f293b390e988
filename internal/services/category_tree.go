package services

import (
	"sort"

	"catalog-service/internal/models"

	"github.com/google/uuid"
)

// categoryIndex is an arena over a flat category table. Trees are
// materialized from it on demand; nodes never hold pointers to parents.
type categoryIndex struct {
	nodes    []models.Category
	byID     map[uuid.UUID]int
	children map[uuid.UUID][]int
	roots    []int
}

func newCategoryIndex(flat []models.Category) *categoryIndex {
	idx := &categoryIndex{
		nodes:    make([]models.Category, len(flat)),
		byID:     make(map[uuid.UUID]int, len(flat)),
		children: make(map[uuid.UUID][]int),
	}
	copy(idx.nodes, flat)
	for i := range idx.nodes {
		idx.nodes[i].Children = nil
		idx.byID[idx.nodes[i].ID] = i
	}
	for i, n := range idx.nodes {
		if n.ParentID == nil {
			idx.roots = append(idx.roots, i)
			continue
		}
		if _, ok := idx.byID[*n.ParentID]; !ok {
			// parent row missing; surface the node at the top rather than drop it
			idx.roots = append(idx.roots, i)
			continue
		}
		idx.children[*n.ParentID] = append(idx.children[*n.ParentID], i)
	}
	order := func(list []int) {
		sort.SliceStable(list, func(a, b int) bool {
			na, nb := idx.nodes[list[a]], idx.nodes[list[b]]
			if na.Position != nb.Position {
				return na.Position < nb.Position
			}
			return na.Name < nb.Name
		})
	}
	order(idx.roots)
	for k := range idx.children {
		order(idx.children[k])
	}
	return idx
}

func (idx *categoryIndex) get(id uuid.UUID) (*models.Category, bool) {
	i, ok := idx.byID[id]
	if !ok {
		return nil, false
	}
	return &idx.nodes[i], true
}

// ancestors returns the chain from id up to its root, id first. ok is false
// when the chain is broken or longer than the maximum depth.
func (idx *categoryIndex) ancestors(id uuid.UUID) ([]uuid.UUID, bool) {
	chain := make([]uuid.UUID, 0, models.MaxCategoryLevel+1)
	cur := id
	for {
		node, found := idx.get(cur)
		if !found {
			return chain, false
		}
		chain = append(chain, cur)
		if node.ParentID == nil {
			return chain, true
		}
		if len(chain) > models.MaxCategoryLevel {
			return chain, false
		}
		cur = *node.ParentID
	}
}

// subtree returns id followed by all of its descendants, breadth first
func (idx *categoryIndex) subtree(id uuid.UUID) []uuid.UUID {
	out := []uuid.UUID{id}
	visited := map[uuid.UUID]bool{id: true}
	for i := 0; i < len(out); i++ {
		for _, child := range idx.children[out[i]] {
			cid := idx.nodes[child].ID
			if visited[cid] {
				continue
			}
			visited[cid] = true
			out = append(out, cid)
		}
	}
	return out
}

// height is the number of levels below id (0 for a leaf)
func (idx *categoryIndex) height(id uuid.UUID) int {
	var walk func(uuid.UUID, int) int
	walk = func(cur uuid.UUID, depth int) int {
		if depth > models.MaxCategoryLevel {
			return depth
		}
		h := 0
		for _, child := range idx.children[cur] {
			if ch := walk(idx.nodes[child].ID, depth+1) + 1; ch > h {
				h = ch
			}
		}
		return h
	}
	return walk(id, 0)
}

// tree materializes the nested tree
func (idx *categoryIndex) tree() []*models.Category {
	var build func(i int, depth int) *models.Category
	build = func(i int, depth int) *models.Category {
		node := idx.nodes[i]
		if depth <= models.MaxCategoryLevel {
			for _, child := range idx.children[node.ID] {
				node.Children = append(node.Children, build(child, depth+1))
			}
		}
		return &node
	}
	out := make([]*models.Category, 0, len(idx.roots))
	for _, r := range idx.roots {
		out = append(out, build(r, 0))
	}
	return out
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
