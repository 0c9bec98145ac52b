package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediaprops/internal/config"
	"mediaprops/internal/engine/memory"
	"mediaprops/internal/logger"
	"mediaprops/internal/mediaprops"
)

type testApp struct {
	*app
	dir    string
	engine *memory.Engine
	buf    *bytes.Buffer
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	dir := t.TempDir()
	engine := memory.New()

	for _, name := range []string{"a.mp4", "b.mp4", "notes.txt", "sub/c.mp4"} {
		p := filepath.Join(dir, filepath.FromSlash(name))
		os.MkdirAll(filepath.Dir(p), 0755)
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		if strings.HasSuffix(name, ".txt") {
			engine.AddNonMedia(p)
		} else {
			engine.Add(p)
		}
	}

	buf := &bytes.Buffer{}
	cfg := config.DefaultConfig()
	a := &app{
		media: mediaprops.New(engine),
		cfg:   cfg,
		log:   logger.Discard(),
		out:   buf,
	}
	return &testApp{app: a, dir: dir, engine: engine, buf: buf}
}

func (ta *testApp) path(name string) string {
	return filepath.Join(ta.dir, filepath.FromSlash(name))
}

func (ta *testApp) exec(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ta.buf.Reset()
	err := ta.run(context.Background(), args[0], args[1:])
	return ta.buf.String(), err
}

func TestSetGet(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")

	if _, err := ta.exec(t, "set", a, "sub_title", "Part One"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if out, err := ta.exec(t, "get", a, "Subtitle"); err != nil || out != "Part One\n" {
		t.Errorf("get = %q, %v", out, err)
	}

	if _, err := ta.exec(t, "set", a, "year", "2021"); err != nil {
		t.Fatalf("set year: %v", err)
	}
	if out, _ := ta.exec(t, "get", a, "YEAR"); out != "2021\n" {
		t.Errorf("get year = %q", out)
	}
}

func TestSetRejectsBadNumbers(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")

	for _, v := range []string{"-3", "abc", "4294967296"} {
		if _, err := ta.exec(t, "set", a, "year", v); !errors.Is(err, mediaprops.ErrInvalidArgument) {
			t.Errorf("set year %s: %v", v, err)
		}
	}
}

func TestGetAbsent(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")

	if out, err := ta.exec(t, "get", a, "comment"); err != nil || out != "" {
		t.Errorf("get = %q, %v", out, err)
	}
	if out, err := ta.exec(t, "get", a, "comment", "--default", "none"); err != nil || out != "none\n" {
		t.Errorf("get --default = %q, %v", out, err)
	}
	_, err := ta.exec(t, "get", a, "comment", "--required")
	var absent *mediaprops.PropertyAbsentError
	if !errors.As(err, &absent) || absent.Path != a {
		t.Errorf("get --required: %v", err)
	}
	if _, err := ta.exec(t, "get", ta.path("gone.mp4"), "comment", "--required"); !errors.Is(err, mediaprops.ErrFileNotFound) {
		t.Errorf("get --required on a missing file: %v", err)
	}
	if _, err := ta.exec(t, "get", a, "comment", "--bogus"); err == nil {
		t.Error("expected usage error")
	}
}

func TestHasAndIsMedia(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")

	if out, _ := ta.exec(t, "has", a, "title"); out != "false\n" {
		t.Errorf("has = %q", out)
	}
	ta.exec(t, "set", a, "title", "x")
	if out, _ := ta.exec(t, "has", a, "title"); out != "true\n" {
		t.Errorf("has = %q", out)
	}

	if out, _ := ta.exec(t, "is-media", a); out != "true\n" {
		t.Errorf("is-media a = %q", out)
	}
	if out, _ := ta.exec(t, "is-media", ta.path("notes.txt")); out != "false\n" {
		t.Errorf("is-media notes = %q", out)
	}
}

func TestClearAndCopy(t *testing.T) {
	ta := newTestApp(t)
	a, b := ta.path("a.mp4"), ta.path("b.mp4")

	ta.exec(t, "set", a, "comment", "yo")
	ta.exec(t, "set", a, "year", "1999")
	if _, err := ta.exec(t, "copy", a, b, "comment", "year", "title"); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if out, _ := ta.exec(t, "get", b, "comment"); out != "yo\n" {
		t.Errorf("copied comment = %q", out)
	}

	if _, err := ta.exec(t, "clear", b, "comment", "year"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if out, _ := ta.exec(t, "dump", b); strings.Contains(out, "COMMENT") {
		t.Errorf("dump after clear = %q", out)
	}
}

func TestClearAllDirectory(t *testing.T) {
	ta := newTestApp(t)
	for _, n := range []string{"a.mp4", "b.mp4", "sub/c.mp4"} {
		ta.exec(t, "set", ta.path(n), "title", "t")
	}

	ta.recursive = false
	if _, err := ta.exec(t, "clear-all", ta.dir); err != nil {
		t.Fatalf("clear-all: %v", err)
	}
	if out, _ := ta.exec(t, "has", ta.path("sub/c.mp4"), "title"); out != "true\n" {
		t.Error("non-recursive clear-all should skip subdirectories")
	}
	if out, _ := ta.exec(t, "has", ta.path("a.mp4"), "title"); out != "false\n" {
		t.Error("a.mp4 should be cleared")
	}

	ta.recursive = true
	if _, err := ta.exec(t, "clear-all", ta.dir); err != nil {
		t.Fatalf("clear-all -r: %v", err)
	}
	if out, _ := ta.exec(t, "has", ta.path("sub/c.mp4"), "title"); out != "false\n" {
		t.Error("recursive clear-all should reach subdirectories")
	}
}

func TestClearAllReportsFailures(t *testing.T) {
	ta := newTestApp(t)
	_, err := ta.exec(t, "clear-all", ta.path("a.mp4"), ta.path("notes.txt"), ta.path("gone.mp4"))
	if !errors.Is(err, mediaprops.ErrNotMediaFile) || !errors.Is(err, mediaprops.ErrFileNotFound) {
		t.Errorf("clear-all error = %v", err)
	}
}

func TestClearAllProgressBar(t *testing.T) {
	ta := newTestApp(t)
	var bar bytes.Buffer
	ta.progressOut = &bar

	if _, err := ta.exec(t, "clear-all", ta.path("a.mp4"), ta.path("b.mp4")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(bar.String(), "2/2") {
		t.Errorf("progress output = %q", bar.String())
	}
}

func TestDump(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")
	ta.exec(t, "set", a, "title", "Clip")
	ta.exec(t, "set", a, "year", "2020")

	out, err := ta.exec(t, "dump", a)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(out, "YEAR: 2020") || !strings.Contains(out, "TITLE: Clip") {
		t.Errorf("dump = %q", out)
	}
	if strings.Index(out, "YEAR") > strings.Index(out, "TITLE") {
		t.Error("dump should list properties in ordinal order")
	}

	out, err = ta.exec(t, "dump", a, "--yaml")
	if err != nil {
		t.Fatalf("dump --yaml: %v", err)
	}
	if out != "TITLE: Clip\nYEAR: 2020\n" {
		t.Errorf("dump --yaml = %q", out)
	}
}

func TestApply(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")
	ta.exec(t, "set", a, "comment", "old")

	values := filepath.Join(ta.dir, "values.yaml")
	content := "title: Clip\nyear: 2020\ncomment: ~\nauthor url: \"https://example.com\"\n"
	if err := os.WriteFile(values, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ta.exec(t, "apply", a, values); err != nil {
		t.Fatalf("apply: %v", err)
	}

	out, _ := ta.exec(t, "dump", a, "--yaml")
	want := "TITLE: Clip\nYEAR: 2020\nAUTHOR_URL: https://example.com\n"
	for _, line := range strings.Split(strings.TrimSpace(want), "\n") {
		if !strings.Contains(out, line) {
			t.Errorf("dump missing %q: %q", line, out)
		}
	}
	if strings.Contains(out, "COMMENT") {
		t.Errorf("null should clear the comment: %q", out)
	}
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	ta := newTestApp(t)
	a := ta.path("a.mp4")
	values := filepath.Join(ta.dir, "values.yaml")
	os.WriteFile(values, []byte("title: Clip\nyear: -1\n"), 0644)

	calls := ta.engine.Calls()
	if _, err := ta.exec(t, "apply", a, values); !errors.Is(err, mediaprops.ErrInvalidArgument) {
		t.Errorf("apply: %v", err)
	}
	if ta.engine.Calls() != calls {
		t.Error("nothing should be written when a value is invalid")
	}
}

func TestProps(t *testing.T) {
	ta := newTestApp(t)
	out, err := ta.exec(t, "props")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"properties", "string", "uint", "AUDIO_SAMPLE_RATE", "Audio Sample Rate (#15)"} {
		if !strings.Contains(out, want) {
			t.Errorf("props missing %q", want)
		}
	}
}

func TestCommandErrors(t *testing.T) {
	ta := newTestApp(t)

	if _, err := ta.exec(t, "rename", "a"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unknown command: %v", err)
	}
	if _, err := ta.exec(t, "get", "a.mp4"); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("missing args: %v", err)
	}
	if _, err := ta.exec(t, "has", ta.path("a.mp4"), "bogus"); err == nil || !strings.Contains(err.Error(), "unknown property") {
		t.Errorf("unknown property: %v", err)
	}
	if _, err := ta.exec(t, "get", ta.path("gone.mp4"), "title"); !errors.Is(err, mediaprops.ErrFileNotFound) {
		t.Errorf("missing file: %v", err)
	}
}
