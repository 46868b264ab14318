package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func makeImages(t *testing.T, dir string, n int) []string {
	t.Helper()
	var paths []string
	for i := 0; i < n; i++ {
		p := filepath.Join(dir, fmt.Sprintf("img_%d.jpg", i))
		if err := os.WriteFile(p, []byte(fmt.Sprintf("image %d", i)), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestOrganizeSplit(t *testing.T) {
	src := t.TempDir()
	ds := t.TempDir()
	images := makeImages(t, src, 10)

	res, err := Organize(images, Config{DatasetDir: ds})
	if err != nil {
		t.Fatal(err)
	}
	if res.Train != 8 || res.Val != 2 {
		t.Fatalf("split = %d/%d, want 8/2", res.Train, res.Val)
	}

	train, _ := os.ReadDir(filepath.Join(ds, "images", "train"))
	val, _ := os.ReadDir(filepath.Join(ds, "images", "val"))
	if len(train) != 8 || len(val) != 2 {
		t.Fatalf("on disk = %d/%d, want 8/2", len(train), len(val))
	}

	// Copies, not moves.
	for _, p := range images {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("source %s was moved", p)
		}
	}
}

func TestOrganizeNaming(t *testing.T) {
	src := t.TempDir()
	ds := t.TempDir()
	images := makeImages(t, src, 5)

	if _, err := Organize(images, Config{DatasetDir: ds}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(ds, "images", "train", "train_img_001.jpg")); err != nil {
		t.Fatal("missing train_img_001.jpg")
	}
	if _, err := os.Stat(filepath.Join(ds, "images", "val", "val_img_001.jpg")); err != nil {
		t.Fatal("missing val_img_001.jpg")
	}
}

func TestOrganizeSmallSets(t *testing.T) {
	tests := []struct {
		n, train, val int
	}{
		{0, 0, 0},
		{1, 0, 1},
		{2, 1, 1},
		{5, 4, 1},
	}
	for _, tt := range tests {
		src := t.TempDir()
		ds := t.TempDir()
		res, err := Organize(makeImages(t, src, tt.n), Config{DatasetDir: ds})
		if err != nil {
			t.Fatal(err)
		}
		if res.Train != tt.train || res.Val != tt.val {
			t.Errorf("n=%d: split = %d/%d, want %d/%d", tt.n, res.Train, res.Val, tt.train, tt.val)
		}
	}
}

func TestOrganizeCustomRatio(t *testing.T) {
	src := t.TempDir()
	ds := t.TempDir()
	res, err := Organize(makeImages(t, src, 10), Config{DatasetDir: ds, SplitRatio: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Train != 5 || res.Val != 5 {
		t.Fatalf("split = %d/%d, want 5/5", res.Train, res.Val)
	}
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	makeImages(t, dir, 3)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	os.WriteFile(filepath.Join(dir, "sub", "deep.jpeg"), []byte("x"), 0o644)

	images, err := CollectImages(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 4 {
		t.Fatalf("collected = %d, want 4", len(images))
	}
}
