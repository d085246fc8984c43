package imageconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/bootimage-builder/internal/target"
)

func writeConfig(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", FileName, err)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[classpath]
roots = ["classes"]
`)
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Target.WordSize != 8 {
		t.Errorf("WordSize default = %d, want 8", c.Target.WordSize)
	}
	if c.Target.Endian != "little" {
		t.Errorf("Endian default = %q, want little", c.Target.Endian)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("Load should fail when bootimage.toml does not exist")
	}
}

func TestLoadRejectsMalformedTOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "this is not [ valid toml")
	if _, err := Load(dir); err == nil {
		t.Fatal("Load should fail on malformed TOML")
	}
}

func TestFindAndLoadWalksUpToParent(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[classpath]
roots = ["classes"]
`)
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if c == nil {
		t.Fatal("FindAndLoad should find bootimage.toml in an ancestor directory")
	}
	wantDir, _ := filepath.Abs(root)
	if c.Dir != wantDir {
		t.Errorf("Dir = %q, want %q", c.Dir, wantDir)
	}
}

func TestFindAndLoadReturnsNilWhenNoneFound(t *testing.T) {
	dir := t.TempDir()
	c, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad should not error when no config exists: %v", err)
	}
	if c != nil {
		t.Errorf("FindAndLoad = %v, want nil", c)
	}
}

func TestClasspathRootPathsResolvesRelativeToDir(t *testing.T) {
	dir := t.TempDir()
	c := &Config{Dir: dir, Classpath: ClasspathConfig{Roots: []string{"classes", "/abs/root"}}}
	paths := c.ClasspathRootPaths()
	if paths[0] != filepath.Join(dir, "classes") {
		t.Errorf("paths[0] = %q, want %q", paths[0], filepath.Join(dir, "classes"))
	}
	if paths[1] != "/abs/root" {
		t.Errorf("paths[1] = %q, want /abs/root (already absolute)", paths[1])
	}
}

func TestMachineWordSizeAndEndian(t *testing.T) {
	cases := []struct {
		wordSize   int
		endian     string
		wantWord   target.WordSize
		wantEndian target.Endian
	}{
		{4, "little", target.Word32, target.LittleEndian},
		{8, "big", target.Word64, target.BigEndian},
	}
	for _, tc := range cases {
		c := &Config{Target: TargetConfig{WordSize: tc.wordSize, Endian: tc.endian}}
		m, err := c.Machine()
		if err != nil {
			t.Fatalf("Machine() failed for %+v: %v", tc, err)
		}
		if m.Word != tc.wantWord || m.Endian != tc.wantEndian {
			t.Errorf("Machine() = %+v, want word=%v endian=%v", m, tc.wantWord, tc.wantEndian)
		}
		if m.BuildWord != target.Word64 || m.BuildEndian != target.LittleEndian {
			t.Errorf("Machine() should always build on a 64-bit little-endian host, got %+v", m)
		}
	}
}

func TestMachineRejectsUnsupportedWordSize(t *testing.T) {
	c := &Config{Target: TargetConfig{WordSize: 16, Endian: "little"}}
	if _, err := c.Machine(); err == nil {
		t.Fatal("Machine() should reject an unsupported word size")
	}
}

func TestMachineRejectsUnsupportedEndian(t *testing.T) {
	c := &Config{Target: TargetConfig{WordSize: 8, Endian: "middle"}}
	if _, err := c.Machine(); err == nil {
		t.Fatal("Machine() should reject an unsupported endian string")
	}
}

func TestJavaHomePrefersEnvironmentOverConfig(t *testing.T) {
	t.Setenv("AVIAN_JAVA_HOME", "/env/java")
	c := &Config{Runtime: RuntimeConfig{JavaHome: "/config/java"}}
	if got := c.JavaHome(); got != "/env/java" {
		t.Errorf("JavaHome() = %q, want /env/java", got)
	}
}

func TestJavaHomeFallsBackToConfig(t *testing.T) {
	t.Setenv("AVIAN_JAVA_HOME", "")
	c := &Config{Runtime: RuntimeConfig{JavaHome: "/config/java"}}
	if got := c.JavaHome(); got != "/config/java" {
		t.Errorf("JavaHome() = %q, want /config/java", got)
	}
}

func TestEmbedPrefixPrefersEnvironmentOverConfig(t *testing.T) {
	t.Setenv("AVIAN_EMBED_PREFIX", "/env/prefix")
	c := &Config{Runtime: RuntimeConfig{EmbedPrefix: "/config/prefix"}}
	if got := c.EmbedPrefix(); got != "/env/prefix" {
		t.Errorf("EmbedPrefix() = %q, want /env/prefix", got)
	}
}
