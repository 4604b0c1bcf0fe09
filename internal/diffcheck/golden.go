package diffcheck

import (
	"os"
)

const updateGoldenEnv = "RUBY2GO_UPDATE_GOLDEN"

// UpdateGolden reports whether golden fixtures should be overwritten rather
// than compared, per the RUBY2GO_UPDATE_GOLDEN=1 convention.
func UpdateGolden() bool {
	return os.Getenv(updateGoldenEnv) == "1"
}

// CheckGolden compares got against the fixture at path. If UpdateGolden()
// is set, it writes got to path instead and returns an Equal Result.
func CheckGolden(path string, got []byte) (Result, error) {
	if UpdateGolden() {
		if err := os.WriteFile(path, got, 0o644); err != nil { //nolint:gosec // fixture files aren't secrets
			return Result{}, err
		}

		return Result{Equal: true}, nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	return Compare(string(want), string(got)), nil
}
