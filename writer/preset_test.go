package writer

import (
	"errors"
	"reflect"
	"testing"

	"tradeflow/logger"
	"tradeflow/models"
)

func newTestStore(t *testing.T) *PresetStore {
	t.Helper()
	store, err := NewPresetStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating preset store: %v", err)
	}
	return store
}

func TestPresetStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	want := models.Preset{
		From:          "2024-01-05",
		To:            "2024-01-09",
		N:             10,
		Mode:          "Grouped",
		RankMode:      "Value",
		IncludeTop:    true,
		IncludeBottom: true,
		Portfolio:     "MM_CORE",
		Metrics:       []string{"PremiaCum", "Total"},
		Fields:        []string{"instrument", "day"},
	}
	if err := store.Save("weekly", want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load("weekly")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestPresetStoreSanitizedNamesCollide(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("My Preset!", models.Preset{N: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load("My_Preset")
	if err != nil {
		t.Fatalf("Load via sanitized name: %v", err)
	}
	if got.N != 1 {
		t.Errorf("N = %d, want 1", got.N)
	}
}

func TestPresetStoreNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("missing"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("err = %v, want ErrPresetNotFound", err)
	}
}

func TestPresetStoreRejectsEmptyName(t *testing.T) {
	store := newTestStore(t)
	if err := store.Save("!!!", models.Preset{}); err == nil {
		t.Error("expected error for name empty after sanitization")
	}
}

func TestPresetStoreListSorted(t *testing.T) {
	store := newTestStore(t)
	for _, name := range []string{"zeta", "alpha", "mid range"} {
		if err := store.Save(name, models.Preset{}); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	names, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"alpha", "mid_range", "zeta"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}
}

func TestPresetStoreCountsRunReportActivity(t *testing.T) {
	store := newTestStore(t)
	before := logger.SnapshotRunCounters()

	if err := store.Save("counted", models.Preset{N: 3}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := store.Load("counted"); err != nil {
		t.Fatalf("Load: %v", err)
	}

	after := logger.SnapshotRunCounters()
	if got := after.PresetOps - before.PresetOps; got != 2 {
		t.Errorf("preset_ops delta = %d, want 2", got)
	}
}

func TestSanitizePresetName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"simple", "simple"},
		{"My Preset!", "My_Preset"},
		{"  padded  ", "padded"},
		{"a/b\\c", "abc"},
		{"keep-these_ok 1", "keep-these_ok_1"},
	}
	for _, c := range cases {
		if got := SanitizePresetName(c.in); got != c.want {
			t.Errorf("SanitizePresetName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
