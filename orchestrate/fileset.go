package orchestrate

import (
	"sync"

	"github.com/depfused/depfused/types"
)

// fileSet is a concurrency-safe, URL-deduplicated collection of JsFiles
// accumulated across the initial capture and subsequent lazy-chunk fetch
// rounds.
type fileSet struct {
	mu    sync.Mutex
	byURL map[string]types.JsFile
}

func newFileSet(initial []types.JsFile) *fileSet {
	fs := &fileSet{byURL: make(map[string]types.JsFile, len(initial))}
	for _, f := range initial {
		fs.byURL[f.URL] = f
	}
	return fs
}

// has reports whether url is already known.
func (fs *fileSet) has(url string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.byURL[url]
	return ok
}

// add records f if its URL isn't already known, reporting whether it was
// newly added.
func (fs *fileSet) add(f types.JsFile) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.byURL[f.URL]; ok {
		return false
	}
	fs.byURL[f.URL] = f
	return true
}

// list returns a snapshot of every file currently known.
func (fs *fileSet) list() []types.JsFile {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]types.JsFile, 0, len(fs.byURL))
	for _, f := range fs.byURL {
		out = append(out, f)
	}
	return out
}
