package profilez

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

// TestSnapshotJSONFormat pins the wire form: fixed key order, derived
// avg_ns, children as an insertion-ordered object.
func TestSnapshotJSONFormat(t *testing.T) {
	snap := Snapshot{
		Profiler:   "svc",
		CapturedAt: time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
		Root: &Node{
			Name:    "root",
			TotalNs: 100,
			Count:   2,
			Children: []*Node{
				{
					Name:    "handler",
					TotalNs: 100,
					Count:   2,
					Children: []*Node{
						{Name: "db", TotalNs: 40, Count: 2},
					},
				},
			},
		},
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := `{"profiler_name":"svc","captured_at":"2026-05-04T03:02:01Z","root":` +
		`{"name":"root","total_ns":100,"count":2,"avg_ns":50,"children":` +
		`{"handler":{"name":"handler","total_ns":100,"count":2,"avg_ns":50,"children":` +
		`{"db":{"name":"db","total_ns":40,"count":2,"avg_ns":20,"children":{}}}}}}}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, string(data))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	prof := New("svc")

	ctx, outer := prof.StartSpan(context.Background(), "outer")
	_, inner := prof.StartSpan(ctx, "inner")
	inner.Close()
	outer.Close()

	original := prof.Snapshot(false)
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if decoded.Profiler != original.Profiler {
		t.Errorf("Expected profiler %s, got %s", original.Profiler, decoded.Profiler)
	}
	if !decoded.CapturedAt.Equal(original.CapturedAt) {
		t.Errorf("Expected captured at %v, got %v", original.CapturedAt, decoded.CapturedAt)
	}
	if decoded.Root.Count != original.Root.Count {
		t.Errorf("Expected root count %d, got %d", original.Root.Count, decoded.Root.Count)
	}

	outerNode := decoded.Root.Child("outer")
	if outerNode == nil {
		t.Fatal("Expected outer survived the round trip")
	}
	if want := original.Root.Child("outer").TotalNs; outerNode.TotalNs != want {
		t.Errorf("Expected outer total %d, got %d", want, outerNode.TotalNs)
	}
	if outerNode.Child("inner") == nil {
		t.Error("Expected inner nested under outer after the round trip")
	}
}

func TestSnapshotChildOrderPreserved(t *testing.T) {
	agg := NewAggregator(DefaultConfig(), nil)
	for _, name := range []string{"zulu", "alpha", "mike"} {
		agg.Add(testSpan(name, 1))
	}

	data, err := json.Marshal(agg.Snapshot(false))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// A plain Go map would marshal these keys sorted.
	zi := bytes.Index(data, []byte(`"zulu"`))
	ai := bytes.Index(data, []byte(`"alpha"`))
	if zi < 0 || ai < 0 || zi > ai {
		t.Errorf("Expected insertion order in JSON, got %s", data)
	}

	var decoded Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := []string{"zulu", "alpha", "mike"}
	if len(decoded.Children) != len(want) {
		t.Fatalf("Expected %d children, got %d", len(want), len(decoded.Children))
	}
	for i, name := range want {
		if decoded.Children[i].Name != name {
			t.Errorf("Expected child %d to be %s, got %s", i, name, decoded.Children[i].Name)
		}
	}
}

func TestNodeUnmarshalRejectsArrayChildren(t *testing.T) {
	var node Node
	err := json.Unmarshal([]byte(`{"name":"x","total_ns":1,"count":1,"children":[]}`), &node)
	if err == nil {
		t.Fatal("Expected error for array children")
	}
}

func TestNodeUnmarshalAbsentChildren(t *testing.T) {
	for _, in := range []string{
		`{"name":"x","total_ns":5,"count":1,"children":null}`,
		`{"name":"x","total_ns":5,"count":1}`,
	} {
		var node Node
		if err := json.Unmarshal([]byte(in), &node); err != nil {
			t.Fatalf("Unexpected error for %s: %v", in, err)
		}
		if node.Children != nil {
			t.Errorf("Expected no children for %s", in)
		}
		if node.TotalNs != 5 || node.Count != 1 {
			t.Errorf("Expected totals decoded for %s", in)
		}
	}
}

func TestNodeUnmarshalIgnoresAvg(t *testing.T) {
	var node Node
	in := `{"name":"x","total_ns":90,"count":3,"avg_ns":999,"children":{}}`
	if err := json.Unmarshal([]byte(in), &node); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := node.AvgNs(); got != 30 {
		t.Errorf("Expected avg derived from totals, got %d", got)
	}
}

func TestNodeMarshalEscapesNames(t *testing.T) {
	node := &Node{
		Name:     `say "hi"`,
		Children: []*Node{{Name: "tab\there"}},
	}

	data, err := json.Marshal(node)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var decoded Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if decoded.Name != node.Name {
		t.Errorf("Expected name %q, got %q", node.Name, decoded.Name)
	}
	if len(decoded.Children) != 1 || decoded.Children[0].Name != "tab\there" {
		t.Error("Expected child name with control characters to survive")
	}
}

func TestNodeAvgNs(t *testing.T) {
	node := &Node{TotalNs: 100, Count: 3}
	if got := node.AvgNs(); got != 33 {
		t.Errorf("Expected 33, got %d", got)
	}

	empty := &Node{}
	if got := empty.AvgNs(); got != 0 {
		t.Errorf("Expected 0 for zero count, got %d", got)
	}
}

func TestNodeChild(t *testing.T) {
	node := &Node{Children: []*Node{{Name: "a"}, {Name: "b"}}}
	if node.Child("b") == nil {
		t.Error("Expected child b")
	}
	if node.Child("missing") != nil {
		t.Error("Expected nil for unknown child")
	}
}
