package poster

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/elvina2036/wwm/pkg/schedule"
)

func testSession(t *testing.T) *Session {
	t.Helper()

	cfg, err := schedule.Parse([]byte(`{
		"title": "每週時間表",
		"baseTimezone": "Asia/Taipei",
		"timezones": [
			{"id": "Asia/Taipei", "label": "台北 (UTC+8)"},
			{"id": "America/New_York", "label": "New York"}
		],
		"daily": [
			{"name": "Morning check-in", "time": "09:00"}
		],
		"days": [
			{"label": "Saturday", "events": [
				{"name": "Premiere", "time": "20:00", "note": "after-party", "noteTime": "23:30"},
				{"name": "Bonus stream", "time": "時間待定"}
			]}
		]
	}`))
	if err != nil {
		t.Fatalf("parsing fixture config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSession(cfg, logger)
}

func TestNodeRegistry(t *testing.T) {
	s := testSession(t)

	wantIDs := []string{"daily/0", "day/0/0", "day/0/0/note", "day/0/1"}
	nodes := s.Nodes()
	if len(nodes) != len(wantIDs) {
		t.Fatalf("got %d nodes, want %d", len(nodes), len(wantIDs))
	}
	for i, node := range nodes {
		if node.ID != wantIDs[i] {
			t.Errorf("node %d id = %q, want %q", i, node.ID, wantIDs[i])
		}
	}

	if nodes[2].Prefix != "after-party " {
		t.Errorf("note node prefix = %q", nodes[2].Prefix)
	}
	if s.CurrentZone() != "Asia/Taipei" {
		t.Errorf("initial zone = %q, want base zone", s.CurrentZone())
	}
}

func TestInitialRenderIsIdentity(t *testing.T) {
	s := testSession(t)

	updates, err := s.Updates()
	if err != nil {
		t.Fatalf("Updates failed: %v", err)
	}

	want := []Update{
		{NodeID: "daily/0", Text: "09:00"},
		{NodeID: "day/0/0", Text: "20:00"},
		{NodeID: "day/0/0/note", Text: "after-party 23:30"},
		{NodeID: "day/0/1", Text: "時間待定"},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Errorf("initial render = %+v, want %+v", updates, want)
	}
}

func TestSelectZone(t *testing.T) {
	s := testSession(t)

	// Asia/Taipei is UTC+8; America/New_York is UTC-5 at the reference
	// instant, 13 hours behind.
	updates, err := s.SelectZone("America/New_York")
	if err != nil {
		t.Fatalf("SelectZone failed: %v", err)
	}

	want := []Update{
		{NodeID: "daily/0", Text: "20:00", DayOffset: -1, Badge: "-1"},
		{NodeID: "day/0/0", Text: "07:00", DayOffset: 0},
		{NodeID: "day/0/0/note", Text: "after-party 10:30", DayOffset: 0},
		{NodeID: "day/0/1", Text: "時間待定", DayOffset: 0},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Errorf("SelectZone = %+v, want %+v", updates, want)
	}
	if s.CurrentZone() != "America/New_York" {
		t.Errorf("current zone = %q after selection", s.CurrentZone())
	}
}

func TestSelectZoneIdempotent(t *testing.T) {
	s := testSession(t)

	first, err := s.SelectZone("America/New_York")
	if err != nil {
		t.Fatalf("first selection failed: %v", err)
	}
	second, err := s.SelectZone("America/New_York")
	if err != nil {
		t.Fatalf("second selection failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-selecting the same zone changed output:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestSelectZoneInvalid(t *testing.T) {
	s := testSession(t)

	if _, err := s.SelectZone("Not/A_Zone"); err == nil {
		t.Fatal("SelectZone with invalid zone did not fail")
	}
	if s.CurrentZone() != "Asia/Taipei" {
		t.Errorf("failed selection changed current zone to %q", s.CurrentZone())
	}

	// The session still renders for its previous selection.
	updates, err := s.Updates()
	if err != nil {
		t.Fatalf("Updates after failed selection: %v", err)
	}
	if updates[0].Text != "09:00" {
		t.Errorf("first node text = %q, want base-zone 09:00", updates[0].Text)
	}
}
