package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// StaticHandler serves the built frontend from dir. Extensionless paths
// fall back to "<path>.html" and then to index.html so client routes such
// as /auth and /reset-password resolve.
func StaticHandler(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	root := http.Dir(dir)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)

		if exists(root, p) || path.Ext(p) != "" {
			fs.ServeHTTP(w, r)
			return
		}

		if exists(root, p+".html") {
			http.ServeFile(w, r, filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(p, "/"))+".html"))
			return
		}

		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}

func exists(root http.Dir, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return false
	}
	if !st.IsDir() {
		return true
	}
	_, err = os.Stat(filepath.Join(string(root), filepath.FromSlash(name), "index.html"))
	return err == nil
}
