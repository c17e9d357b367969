package featureflags

import "testing"

func TestDefaultsAreOn(t *testing.T) {
	m := NewManager("")

	if !m.Enabled(PostImages, 0) || !m.Enabled(FollowFeed, 7) {
		t.Fatal("expected built-in flags to default to on")
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("unknown flags must be disabled")
	}
}

func TestOverridesDefaults(t *testing.T) {
	m := NewManager("post_images=off, FOLLOW_FEED = 0")

	if m.Enabled(PostImages, 1) || m.Enabled(FollowFeed, 1) {
		t.Fatal("expected configured values to override defaults")
	}
}

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
	if m.Enabled("a", 0) != true {
		t.Fatal("boolean flags apply to anonymous visitors too")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	if !m.Enabled("always", 1) || !m.Enabled("always", 0) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) || m.Enabled("broken", 1) {
		t.Fatal("0% and malformed rollouts should be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("partial rollout requires a signed-in user")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off,=on,w=")

	raw := m.Raw()
	if len(raw) != 5 {
		t.Fatalf("expected 3 parsed flags plus 2 defaults, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	names := m.Names()
	if len(names) != 5 || names[0] != FollowFeed {
		t.Fatalf("unexpected names: %v", names)
	}

	snap := m.Snapshot(123)
	if len(snap) != 5 || !snap[PostImages] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}

	var nilManager *Manager
	if nilManager.Enabled(PostImages, 1) {
		t.Fatal("nil manager must disable everything")
	}
}
