// Package poster owns one rendered schedule session: the registry of
// time-bearing display nodes and the currently selected timezone.
//
// A Session replaces what would otherwise be hidden process-wide state (a
// global offset cache plus a "current zone" variable) with one object scoped
// to one rendered poster. Selection produces plain update records; applying
// them to a page or a terminal is the rendering layer's job, which keeps the
// conversion core free of any UI dependency.
package poster

import (
	"fmt"
	"log/slog"

	"github.com/elvina2036/wwm/pkg/schedule"
	"github.com/elvina2036/wwm/pkg/tzconvert"
	"github.com/elvina2036/wwm/pkg/tzoffset"
)

// Node is a time-bearing display element: a base wall-clock time in the
// config's base zone, plus an optional literal prefix for compound fields
// like "note + time".
type Node struct {
	ID       string
	Prefix   string
	BaseTime string
}

// Update tells the rendering layer how to rewrite one node after a zone
// selection. Badge is "+1" or "-1" when the converted time rolled over a day
// boundary, one badge regardless of magnitude; DayOffset keeps the full
// signed count.
type Update struct {
	NodeID    string `json:"node_id"`
	Text      string `json:"text"`
	DayOffset int    `json:"day_offset"`
	Badge     string `json:"badge,omitempty"`
}

// Session is the conversion context for one rendered poster.
type Session struct {
	cfg      *schedule.Config
	resolver *tzoffset.Resolver
	logger   *slog.Logger
	nodes    []Node
	current  string
}

// NewSession builds the node registry for cfg and starts with the base zone
// selected.
func NewSession(cfg *schedule.Config, logger *slog.Logger) *Session {
	s := &Session{
		cfg:      cfg,
		resolver: tzoffset.New(logger),
		logger:   logger,
		current:  cfg.BaseTimezone,
	}
	s.buildNodes()
	return s
}

func (s *Session) buildNodes() {
	add := func(id string, ev schedule.Event) {
		s.nodes = append(s.nodes, Node{ID: id, BaseTime: ev.Time})
		if ev.NoteTime != "" {
			prefix := ""
			if ev.Note != "" {
				prefix = ev.Note + " "
			}
			s.nodes = append(s.nodes, Node{ID: id + "/note", Prefix: prefix, BaseTime: ev.NoteTime})
		}
	}

	for i, ev := range s.cfg.Daily {
		add(fmt.Sprintf("daily/%d", i), ev)
	}
	for d, day := range s.cfg.Days {
		for e, ev := range day.Events {
			add(fmt.Sprintf("day/%d/%d", d, e), ev)
		}
	}
}

// Nodes returns the time-bearing node registry in document order.
func (s *Session) Nodes() []Node {
	return s.nodes
}

// CurrentZone returns the currently selected zone.
func (s *Session) CurrentZone() string {
	return s.current
}

// Config returns the document this session renders.
func (s *Session) Config() *schedule.Config {
	return s.cfg
}

// SelectZone recomputes every node's display text for tz and returns the
// full list of updates. The pass either completes for all nodes or fails
// without changing the selection; selecting the same zone again produces
// identical records.
func (s *Session) SelectZone(tz string) ([]Update, error) {
	updates := make([]Update, 0, len(s.nodes))
	for _, node := range s.nodes {
		result, err := tzconvert.Convert(node.BaseTime, s.cfg.BaseTimezone, tz, s.resolver)
		if err != nil {
			return nil, fmt.Errorf("converting node %s: %w", node.ID, err)
		}

		updates = append(updates, Update{
			NodeID:    node.ID,
			Text:      node.Prefix + result.Display,
			DayOffset: result.DayOffset,
			Badge:     badge(result.DayOffset),
		})
	}

	s.current = tz
	s.logger.Debug("zone selected", "tz", tz, "nodes", len(updates))
	return updates, nil
}

// Updates re-renders all nodes for the currently selected zone.
func (s *Session) Updates() ([]Update, error) {
	return s.SelectZone(s.current)
}

func badge(dayOffset int) string {
	switch {
	case dayOffset > 0:
		return "+1"
	case dayOffset < 0:
		return "-1"
	default:
		return ""
	}
}
