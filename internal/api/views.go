package api

import (
	"time"

	"github.com/vytor/openingtree/internal/engine"
	"github.com/vytor/openingtree/internal/models"
	"github.com/vytor/openingtree/internal/services"
	"github.com/vytor/openingtree/internal/tree"
)

type filterView struct {
	PlayerName string `json:"player_name"`
	Side       string `json:"side"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Opponent   string `json:"opponent,omitempty"`
}

func newFilterView(f models.FilterCriteria) filterView {
	return filterView{
		PlayerName: f.PlayerName,
		Side:       f.Side.String(),
		StartDate:  f.StartDate.Format(time.DateOnly),
		EndDate:    f.EndDate.Format(time.DateOnly),
		Opponent:   f.Opponent,
	}
}

type buildView struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	Filter      filterView        `json:"filter"`
	SubmittedAt time.Time         `json:"submitted_at"`
	Progress    services.Progress `json:"progress"`
	Summary     *tree.Summary     `json:"summary,omitempty"`
	Statistics  *tree.Statistics  `json:"statistics,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func newBuildView(h *services.BuildHandle) buildView {
	v := buildView{
		ID:          h.ID(),
		Status:      string(h.Status()),
		Filter:      newFilterView(h.Filter()),
		SubmittedAt: h.SubmittedAt(),
		Progress:    h.Progress(),
	}
	res, ok := h.Result()
	if !ok {
		return v
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
		return v
	}
	st := tree.Stats(res.Root)
	v.Summary = &res.Summary
	v.Statistics = &st
	return v
}

type openingView struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

type childView struct {
	Move    string  `json:"move"`
	Games   int     `json:"games"`
	WinPct  float64 `json:"win_pct"`
	DrawPct float64 `json:"draw_pct"`
	LossPct float64 `json:"loss_pct"`
}

type gameView struct {
	ID     int64  `json:"id"`
	White  string `json:"white"`
	Black  string `json:"black"`
	Result string `json:"result"`
	Date   string `json:"date,omitempty"`
	Event  string `json:"event,omitempty"`
}

type nodeView struct {
	Move       string       `json:"move,omitempty"`
	Ply        int          `json:"ply"`
	PositionID string       `json:"position_id"`
	Path       []string     `json:"path"`
	Games      int          `json:"games"`
	Wins       int          `json:"wins"`
	Draws      int          `json:"draws"`
	Losses     int          `json:"losses"`
	WinPct     float64      `json:"win_pct"`
	DrawPct    float64      `json:"draw_pct"`
	LossPct    float64      `json:"loss_pct"`
	Opening    *openingView `json:"opening,omitempty"`
	Children   []childView  `json:"children"`
	GameList   []gameView   `json:"game_list,omitempty"`
}

func newNodeView(n *tree.Node, withGames bool) nodeView {
	path := n.MovePath()
	if path == nil {
		path = []string{}
	}
	v := nodeView{
		Move:       n.Move(),
		Ply:        n.Ply(),
		PositionID: n.PositionID(),
		Path:       path,
		Games:      n.GameCount(),
		Wins:       n.Wins(),
		Draws:      n.Draws(),
		Losses:     n.Losses(),
		WinPct:     n.WinPct(),
		DrawPct:    n.DrawPct(),
		LossPct:    n.LossPct(),
		Children:   make([]childView, 0, n.ChildCount()),
	}
	if eco, name, ok := engine.Classify(path); ok {
		v.Opening = &openingView{ECO: eco, Name: name}
	}
	for _, c := range n.ChildrenSorted() {
		v.Children = append(v.Children, childView{
			Move:    c.Move(),
			Games:   c.GameCount(),
			WinPct:  c.WinPct(),
			DrawPct: c.DrawPct(),
			LossPct: c.LossPct(),
		})
	}
	if withGames {
		for _, g := range n.Games() {
			gv := gameView{ID: g.GameID(), White: g.White(), Black: g.Black(), Result: g.Result(), Event: g.Event()}
			if d := g.Date(); d != nil {
				gv.Date = d.Format(time.DateOnly)
			}
			v.GameList = append(v.GameList, gv)
		}
	}
	return v
}
