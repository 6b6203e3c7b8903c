package testing

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
)

func init() {
	// cd to the project root so relative paths (.env, testdata) resolve the
	// same way for every package, and keep test logs out of the source tree.
	//
	//   import (
	//     _ "liyu1981.xyz/iaq-telemetry-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}

	if os.Getenv("IAQ_LOGS_DIR") == "" {
		_ = os.Setenv("IAQ_LOGS_DIR", filepath.Join(os.TempDir(), "iaq-telemetry-test-logs"))
	}
}
