package tree

// Navigate follows path from root. It returns false as soon as a move is
// missing; no partial node is returned.
func Navigate(root *Node, path []string) (*Node, bool) {
	if root == nil {
		return nil, false
	}
	node := root
	for _, move := range path {
		next, ok := node.Child(move)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Statistics summarizes a built tree.
type Statistics struct {
	TotalGames      int `json:"total_games"`
	TotalVariations int `json:"total_variations"`
	MaxDepth        int `json:"max_depth"`
}

// Stats counts the games at the root and every node below it.
func Stats(root *Node) Statistics {
	if root == nil {
		return Statistics{}
	}
	var nodes, depth int
	Walk(root, func(n *Node) bool {
		nodes++
		if n.ply > depth {
			depth = n.ply
		}
		return true
	})
	return Statistics{
		TotalGames:      root.GameCount(),
		TotalVariations: nodes - 1,
		MaxDepth:        depth,
	}
}

// Walk visits root and its descendants depth-first, children in first-seen
// order, using an explicit stack. Returning false from fn skips the subtree.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			continue
		}
		for i := len(n.order) - 1; i >= 0; i-- {
			stack = append(stack, n.order[i])
		}
	}
}
