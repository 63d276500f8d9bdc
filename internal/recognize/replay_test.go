package recognize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReplayServesScriptThenEnds(t *testing.T) {
	script := []Observation{
		{Faces: []Face{{Label: 1, Distance: 20}}},
		{Faces: []Face{{Label: 2, Distance: 50}}},
	}
	r := NewReplay(script, 0)
	ctx := context.Background()

	for i, want := range script {
		got, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("Next %d failed: %v", i, err)
		}
		if len(got.Faces) != 1 || got.Faces[0] != want.Faces[0] {
			t.Errorf("observation %d = %+v, want %+v", i, got, want)
		}
	}

	if _, err := r.Next(ctx); !errors.Is(err, ErrFeedEnded) {
		t.Errorf("expected ErrFeedEnded, got %v", err)
	}
}

func TestReplayHonorsContext(t *testing.T) {
	r := NewReplay([]Observation{{}}, 250*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.jsonl")
	content := `# demo script
{"faces":[{"label":1,"distance":20.5,"region":{"x":1,"y":2,"width":3,"height":4}}]}

{"faces":[]}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	obs, err := LoadScript(path)
	if err != nil {
		t.Fatalf("LoadScript failed: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if len(obs[0].Faces) != 1 || obs[0].Faces[0].Label != 1 || obs[0].Faces[0].Region.Dx() != 3 {
		t.Errorf("unexpected first observation: %+v", obs[0])
	}
	if len(obs[1].Faces) != 0 {
		t.Errorf("unexpected second observation: %+v", obs[1])
	}
}

func TestLoadScriptRejectsBadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.jsonl")
	if err := os.WriteFile(path, []byte("{broken\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := LoadScript(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestScriptOpenerRestartsScript(t *testing.T) {
	opener := &ScriptOpener{Observations: []Observation{{Faces: []Face{{Label: 7}}}}}
	ctx := context.Background()

	for run := 0; run < 2; run++ {
		src, err := opener.Open(ctx, "0")
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		obs, err := src.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if len(obs.Faces) != 1 || obs.Faces[0].Label != 7 {
			t.Errorf("run %d: unexpected observation %+v", run, obs)
		}
	}
}
