package locate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/crosspoint-reader/cpf/core"
)

func TestResolveFontSourceFile(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cpf.fonts")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "GoRegular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	f, err := ResolveFontSource(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Filepath != path {
		t.Errorf("resolved file path = %s, want %s", f.Filepath, path)
	}
	t.Logf("resolved %s", f.Fontname)
}

func TestResolveFontSourceMissing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cpf.fonts")
	defer teardown()
	//
	_, err := ResolveFontSource("definitely-no-such-font-xyzzy.ttf")
	if err == nil {
		t.Fatal("expected an error for an unknown font source")
	}
	if core.Code(err) != core.EMISSING {
		t.Errorf("expected EMISSING, have %d", core.Code(err))
	}
}

func TestResolveFontSourceGarbage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cpf.fonts")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "garbage.ttf")
	if err := os.WriteFile(path, []byte("this is not a font"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := ResolveFontSource(path)
	if err == nil {
		t.Fatal("expected an error for a non-font file")
	}
	if core.Code(err) != core.EINVALID {
		t.Errorf("expected EINVALID, have %d", core.Code(err))
	}
}

func TestResolveFontSourcesAbortsOnFirstFailure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "cpf.fonts")
	defer teardown()
	//
	path := filepath.Join(t.TempDir(), "GoRegular.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ResolveFontSources([]string{path, "no-such-font-anywhere.otf"}); err == nil {
		t.Fatal("expected resolution to fail on the missing source")
	}
}
