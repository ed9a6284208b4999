package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/clipline/clipline/pkg/infra/fetch"
)

func TestFileFetcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.html")
	gt.NoError(t, os.WriteFile(path, []byte("<html>clip</html>"), 0600))

	f := fetch.NewFile()
	gt.Array(t, f.Schemes()).Equal([]string{"file"})

	data := gt.R1(f.Fetch(context.Background(), "file://"+path)).NoError(t)
	gt.Equal(t, string(data), "<html>clip</html>")

	_, err := f.Fetch(context.Background(), "file://"+filepath.Join(dir, "missing.html"))
	gt.Error(t, err)
}

func TestHTTPFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Write([]byte("<html>remote</html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f := fetch.NewHTTP(server.Client())
	gt.Array(t, f.Schemes()).Equal([]string{"http", "https"})

	data := gt.R1(f.Fetch(context.Background(), server.URL+"/page")).NoError(t)
	gt.Equal(t, string(data), "<html>remote</html>")

	_, err := f.Fetch(context.Background(), server.URL+"/missing")
	gt.Error(t, err)
}
