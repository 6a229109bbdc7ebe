package driver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowfmt/internal/config"
)

func testOptions() Options {
	return Options{Config: config.Default()}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFormatSource(t *testing.T) {
	out, bag, err := FormatSource(context.Background(), "test.flow", []byte("rule a:\n    threads:1\n"), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "rule a:\n    threads: 1\n" {
		t.Errorf("out = %q", out)
	}
	if bag.HasErrors() {
		t.Errorf("unexpected diagnostics: %v", bag.Items())
	}
}

func TestFormatSourceSyntaxError(t *testing.T) {
	_, bag, err := FormatSource(context.Background(), "test.flow", []byte("input: \"orphan\"\n"), testOptions())
	if err == nil {
		t.Fatal("want error for key outside block")
	}
	if !bag.HasErrors() {
		t.Errorf("bag has no errors")
	}
}

func TestFormatPathsWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.flow", "rule a:\n    threads:1\n")
	writeFile(t, dir, "notes.txt", "not a workflow\n")

	results, err := FormatPaths(context.Background(), []string{dir}, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (txt file must be skipped)", len(results))
	}
	if !results[0].Changed {
		t.Errorf("file not marked changed")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "rule a:\n    threads: 1\n" {
		t.Errorf("file content = %q", data)
	}
}

func TestFormatPathsCheckDoesNotWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.flow", "rule a:\n    threads:1\n")

	opt := testOptions()
	opt.Mode = ModeCheck
	results, err := FormatPaths(context.Background(), []string{path}, opt)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Changed {
		t.Errorf("check did not flag the file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "rule a:\n    threads:1\n" {
		t.Errorf("check mode modified the file: %q", data)
	}
}

func TestFormatPathsStdout(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "Flowfile", "include: \"x.flow\"\n")

	opt := testOptions()
	opt.Mode = ModeStdout
	results, err := FormatPaths(context.Background(), []string{path}, opt)
	if err != nil {
		t.Fatal(err)
	}
	if string(results[0].Formatted) != "include: \"x.flow\"\n" {
		t.Errorf("formatted = %q", results[0].Formatted)
	}
	if results[0].Changed {
		t.Errorf("already-formatted file flagged as changed")
	}
}

func TestFormatPathsDiff(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.flow", "rule a:\n    threads:1\n")

	opt := testOptions()
	opt.Mode = ModeDiff
	results, err := FormatPaths(context.Background(), []string{path}, opt)
	if err != nil {
		t.Fatal(err)
	}
	d := results[0].Diff
	if !strings.Contains(d, "-    threads:1") || !strings.Contains(d, "+    threads: 1") {
		t.Errorf("diff = %q", d)
	}
}

func TestFormatPathsNoFiles(t *testing.T) {
	if _, err := FormatPaths(context.Background(), []string{t.TempDir()}, testOptions()); err != ErrNoFiles {
		t.Fatalf("err = %v, want ErrNoFiles", err)
	}
}

func TestFormatPathsProgressObserver(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.flow", "rule a:\n    threads: 1\n")
	writeFile(t, dir, "b.flow", "rule b:\n    threads: 2\n")

	opt := testOptions()
	opt.Mode = ModeCheck
	var calls int
	var lastTotal int
	opt.OnResult = func(_ Result, done, total int) {
		calls++
		lastTotal = total
		if done < 1 || done > total {
			t.Errorf("done = %d out of range", done)
		}
	}
	if _, err := FormatPaths(context.Background(), []string{dir}, opt); err != nil {
		t.Fatal(err)
	}
	if calls != 2 || lastTotal != 2 {
		t.Errorf("observer calls = %d, total = %d", calls, lastTotal)
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	key := cacheKey([]byte("rule a:\n"), testOptions())
	if hit, _ := cache.Lookup(key); hit {
		t.Fatal("cold cache reported a hit")
	}
	cache.Store(key, []byte("formatted"))
	hit, got := cache.Lookup(key)
	if !hit || string(got) != "formatted" {
		t.Fatalf("Lookup = %v, %q", hit, got)
	}
	if err := cache.DropAll(); err != nil {
		t.Fatal(err)
	}
	if hit, _ := cache.Lookup(key); hit {
		t.Errorf("DropAll left entries behind")
	}
}

func TestCacheKeyVariesWithOptions(t *testing.T) {
	content := []byte("rule a:\n    threads: 1\n")
	a := cacheKey(content, testOptions())

	opt := testOptions()
	opt.Config.Format.LineLength = 120
	b := cacheKey(content, opt)
	if a == b {
		t.Errorf("line length change did not change the key")
	}

	opt = testOptions()
	opt.Config.Engine.Command = "black"
	c := cacheKey(content, opt)
	if a == c {
		t.Errorf("engine change did not change the key")
	}
}

func TestFormatPathsUsesCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.flow", "rule a:\n    threads: 1\n")
	cache, err := OpenDiskCache(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}

	opt := testOptions()
	opt.Mode = ModeCheck
	opt.Cache = cache

	first, err := FormatPaths(context.Background(), []string{filepath.Join(dir, "a.flow")}, opt)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].FromCache {
		t.Fatalf("first run must miss the cache")
	}
	second, err := FormatPaths(context.Background(), []string{filepath.Join(dir, "a.flow")}, opt)
	if err != nil {
		t.Fatal(err)
	}
	if !second[0].FromCache {
		t.Errorf("second run did not hit the cache")
	}
	if second[0].Changed {
		t.Errorf("cached result flagged as changed")
	}
}
