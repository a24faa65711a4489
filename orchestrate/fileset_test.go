package orchestrate

import (
	"sync"
	"testing"

	"github.com/depfused/depfused/types"
)

func TestFileSetDedupesByURL(t *testing.T) {
	initial := []types.JsFile{{URL: "https://a.com/a.js", Content: "x"}}
	fs := newFileSet(initial)

	if !fs.has("https://a.com/a.js") {
		t.Fatal("expected initial file to be present")
	}
	if fs.has("https://a.com/b.js") {
		t.Fatal("unexpected file present before add")
	}

	if added := fs.add(types.JsFile{URL: "https://a.com/a.js", Content: "y"}); added {
		t.Fatal("re-adding a known URL should report false")
	}
	if added := fs.add(types.JsFile{URL: "https://a.com/b.js", Content: "z"}); !added {
		t.Fatal("adding a new URL should report true")
	}

	list := fs.list()
	if len(list) != 2 {
		t.Fatalf("expected 2 files, got %d", len(list))
	}
}

func TestFileSetConcurrentAdd(t *testing.T) {
	fs := newFileSet(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			fs.add(types.JsFile{URL: "https://a.com/f.js"})
			_ = i
		}()
	}
	wg.Wait()

	if len(fs.list()) != 1 {
		t.Fatalf("expected exactly 1 deduped file, got %d", len(fs.list()))
	}
}
