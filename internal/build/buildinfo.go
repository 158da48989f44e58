package build

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/conneroisu/projtool/internal/host"
)

// Info is the persisted build-info record for one project: the
// engine version that produced it and a hash per output file, used by
// the Up-to-Date Evaluator's TsVersionOutputOfDate check and by
// UpdateBundle to regenerate outputs without a full program.
type Info struct {
	Version     string            `json:"version"`
	BuiltAt     time.Time         `json:"builtAt"`
	OutputHashes map[string]string `json:"outputHashes"`
}

// ReadBuildInfo loads a project's build-info file. A missing file is
// not an error: it returns (nil, false, nil) so callers treat the
// project as never built.
func ReadBuildInfo(fs host.FileSystem, path string) (*Info, bool, error) {
	text, ok, err := fs.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read build info %s: %w", path, err)
	}
	if !ok {
		return nil, false, nil
	}
	var info Info
	if err := json.Unmarshal([]byte(text), &info); err != nil {
		return nil, false, fmt.Errorf("parse build info %s: %w", path, err)
	}
	return &info, true, nil
}

// WriteBuildInfo persists a project's build-info file.
func WriteBuildInfo(fs host.FileSystem, path string, info *Info) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal build info: %w", err)
	}
	return fs.WriteFile(path, string(data), false)
}
