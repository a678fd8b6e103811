package testsupport

import (
	"embed"
	"os"
	"path/filepath"
	"testing"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Fixture names shipped with the package.
const (
	// FixtureMLP is a punctuated English ASR track with a [Music] intro.
	FixtureMLP = "mlp_s4e26.json"
	// FixtureFriendship interleaves newline boundary events with comma-ended
	// fragments.
	FixtureFriendship = "friendship_newlines.json"
	// FixtureUnpunctuated is an English ASR track with no sentence marks.
	FixtureUnpunctuated = "unpunctuated.json"
)

// Fixture returns the raw bytes of a named timedtext fixture.
func Fixture(t testing.TB, name string) []byte {
	t.Helper()

	data, err := fixtures.ReadFile("fixtures/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return data
}

// WriteFixture copies a named fixture into a temp directory and returns the
// path.
func WriteFixture(t testing.TB, name string) string {
	t.Helper()

	return WriteFile(t, filepath.Join(t.TempDir(), name), Fixture(t, name))
}

// WriteFile writes data to path, creating parent directories.
func WriteFile(t testing.TB, path string, data []byte) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
