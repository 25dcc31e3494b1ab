package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeMarker(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s failed: %v", name, err)
	}
}

func TestDetectNodeWithFrameworks(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "package.json", `{
		"dependencies": {"react": "^18.0.0"},
		"devDependencies": {"typescript": "^5.4.0"}
	}`)

	got := Detect(dir)
	wantStack := []string{"node", "react", "typescript"}
	wantTags := []string{"node", "react", "typescript"}
	if !reflect.DeepEqual(got.Stack, wantStack) {
		t.Errorf("expected stack %v, got %v", wantStack, got.Stack)
	}
	if !reflect.DeepEqual(got.CompatibilityTags, wantTags) {
		t.Errorf("expected tags %v, got %v", wantTags, got.CompatibilityTags)
	}
}

func TestDetectNodeWithoutFrameworks(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "package.json", `{"dependencies": {"express": "^4.0.0"}}`)

	got := Detect(dir)
	if !reflect.DeepEqual(got.Stack, []string{"node"}) {
		t.Errorf("expected plain node stack, got %v", got.Stack)
	}
}

func TestDetectNodeMalformedManifest(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "package.json", `{not json`)

	got := Detect(dir)
	if !reflect.DeepEqual(got.Stack, []string{"node"}) {
		t.Errorf("malformed manifest should still detect node, got %v", got.Stack)
	}
}

func TestDetectPython(t *testing.T) {
	for _, marker := range []string{"pyproject.toml", "requirements.txt"} {
		dir := t.TempDir()
		writeMarker(t, dir, marker, "")

		got := Detect(dir)
		if !reflect.DeepEqual(got.Stack, []string{"python"}) {
			t.Errorf("%s: expected python stack, got %v", marker, got.Stack)
		}
	}
}

func TestDetectDockerfileOnly(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "Dockerfile", "FROM alpine")

	got := Detect(dir)
	// A Dockerfile alone says nothing about the language stack.
	if !reflect.DeepEqual(got.Stack, []string{"unknown"}) {
		t.Errorf("expected unknown stack, got %v", got.Stack)
	}
	if !reflect.DeepEqual(got.CompatibilityTags, []string{"container", "general"}) {
		t.Errorf("expected container+general tags, got %v", got.CompatibilityTags)
	}
}

func TestDetectPolyglot(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "go.mod", "module example.com/app")
	writeMarker(t, dir, "Dockerfile", "FROM golang:1.24")
	writeMarker(t, dir, "Cargo.toml", "[package]")

	got := Detect(dir)
	if !reflect.DeepEqual(got.Stack, []string{"go", "rust"}) {
		t.Errorf("expected go+rust stack, got %v", got.Stack)
	}
	if !reflect.DeepEqual(got.CompatibilityTags, []string{"container", "go", "rust"}) {
		t.Errorf("expected sorted tags, got %v", got.CompatibilityTags)
	}
}

func TestDetectJavaAndRuby(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir, "build.gradle", "")
	writeMarker(t, dir, "Gemfile", "")

	got := Detect(dir)
	if !reflect.DeepEqual(got.Stack, []string{"java", "ruby"}) {
		t.Errorf("expected java+ruby stack, got %v", got.Stack)
	}
}

func TestDetectEmptyDirectory(t *testing.T) {
	got := Detect(t.TempDir())
	if !reflect.DeepEqual(got.Stack, []string{"unknown"}) {
		t.Errorf("expected unknown stack, got %v", got.Stack)
	}
	if !reflect.DeepEqual(got.CompatibilityTags, []string{"general"}) {
		t.Errorf("expected general tag, got %v", got.CompatibilityTags)
	}
}

func TestDetectMissingDirectory(t *testing.T) {
	got := Detect(filepath.Join(t.TempDir(), "does-not-exist"))
	if !reflect.DeepEqual(got.Stack, []string{"unknown"}) {
		t.Errorf("detection must not fail on a missing root, got %v", got.Stack)
	}
}
