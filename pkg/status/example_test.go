package status_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/walteh/patchrc/pkg/status"
)

func ExampleManager_Expand() {
	root, err := os.MkdirTemp("", "patchrc-status")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(root)

	_ = os.MkdirAll(filepath.Join(root, "pkg"), 0o755)
	for _, name := range []string{"a.py", "b.py", "skip_c.py", "notes.txt"} {
		_ = os.WriteFile(filepath.Join(root, "pkg", name), []byte("x = 1\n"), 0o644)
	}

	mgr := status.New(root)
	paths, err := mgr.Expand(context.Background(), "pkg/*.py", []string{"pkg/skip_*.py"})
	if err != nil {
		panic(err)
	}
	for _, p := range paths {
		fmt.Println(filepath.ToSlash(p))
	}
	// Output:
	// pkg/a.py
	// pkg/b.py
}
