// Package tree builds and navigates opening trees: prefix trees of move
// sequences where every node carries the games that reached it and their
// win/draw/loss counts from the tracked player's side.
package tree

import (
	"fmt"
	"sort"

	"github.com/vytor/openingtree/internal/models"
)

// Node is one position in an opening tree. Nodes are only mutated by the
// Builder while a build is running; afterwards every accessor is read-only.
type Node struct {
	positionID string
	move       string
	ply        int
	parent     *Node // back-reference for path reconstruction only

	children map[string]*Node
	order    []*Node // children in first-seen order

	games  []models.GameReference
	wins   int
	draws  int
	losses int
}

func newRoot(positionID string) *Node {
	return &Node{
		positionID: positionID,
		children:   make(map[string]*Node),
	}
}

// getOrCreateChild returns the child keyed by move, creating it on first use.
func (n *Node) getOrCreateChild(move, positionID string, ply int) *Node {
	if child, ok := n.children[move]; ok {
		return child
	}
	child := &Node{
		positionID: positionID,
		move:       move,
		ply:        ply,
		parent:     n,
		children:   make(map[string]*Node),
	}
	n.children[move] = child
	n.order = append(n.order, child)
	return child
}

// addGame attaches g and bumps the matching counter. The caller guarantees
// that g resolves to exactly one of win, draw or loss.
func (n *Node) addGame(g models.GameReference) {
	n.games = append(n.games, g)
	switch {
	case g.IsWin():
		n.wins++
	case g.IsDraw():
		n.draws++
	case g.IsLoss():
		n.losses++
	}
}

// PositionID is the FEN of the position at this node.
func (n *Node) PositionID() string { return n.positionID }

// Move is the SAN move that led here; empty at the root.
func (n *Node) Move() string { return n.move }

// Ply is the number of half-moves from the starting position.
func (n *Node) Ply() int { return n.ply }

// Parent is nil at the root.
func (n *Node) Parent() *Node { return n.parent }

func (n *Node) IsRoot() bool { return n.parent == nil }

// Child returns the child reached by move.
func (n *Node) Child(move string) (*Node, bool) {
	c, ok := n.children[move]
	return c, ok
}

// Children returns the children in the order they were first seen.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.order))
	copy(out, n.order)
	return out
}

// ChildCount returns the number of distinct continuations.
func (n *Node) ChildCount() int { return len(n.order) }

// ChildrenSorted returns the children by descending game count, ties kept in
// first-seen order. The node itself is not modified.
func (n *Node) ChildrenSorted() []*Node {
	out := n.Children()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].GameCount() > out[j].GameCount()
	})
	return out
}

// Games returns the games attached to this node in build order.
func (n *Node) Games() []models.GameReference {
	out := make([]models.GameReference, len(n.games))
	copy(out, n.games)
	return out
}

func (n *Node) GameCount() int { return len(n.games) }
func (n *Node) Wins() int      { return n.wins }
func (n *Node) Draws() int     { return n.draws }
func (n *Node) Losses() int    { return n.losses }

func (n *Node) WinPct() float64  { return pct(n.wins, len(n.games)) }
func (n *Node) DrawPct() float64 { return pct(n.draws, len(n.games)) }
func (n *Node) LossPct() float64 { return pct(n.losses, len(n.games)) }

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

// MovePath returns the moves from the root to n.
func (n *Node) MovePath() []string {
	var path []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		path = append(path, cur.move)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (n *Node) String() string {
	if n.IsRoot() {
		return fmt.Sprintf("Start (N=%d)", n.GameCount())
	}
	return fmt.Sprintf("%s (N=%d, W:%.1f%% D:%.1f%% L:%.1f%%)",
		n.move, n.GameCount(), n.WinPct(), n.DrawPct(), n.LossPct())
}
