package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/projtool/internal/build"
	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/registry"
	"github.com/conneroisu/projtool/internal/types"
)

// StatusKind discriminates the Up-to-Date Status tagged variant. Only
// the fields relevant to a given Kind are meaningful; the rest are the
// zero value.
type StatusKind int

const (
	StatusUnbuildable StatusKind = iota
	StatusContainerOnly
	StatusUpToDate
	StatusUpToDateWithUpstreamTypes
	StatusOutOfDateWithPrepend
	StatusOutputMissing
	StatusOutOfDateWithSelf
	StatusOutOfDateWithUpstream
	StatusUpstreamOutOfDate
	StatusUpstreamBlocked
	StatusComputingUpstream
	StatusTsVersionOutputOfDate
)

// String names a StatusKind for logging and the Reporter.
func (k StatusKind) String() string {
	switch k {
	case StatusUnbuildable:
		return "unbuildable"
	case StatusContainerOnly:
		return "container-only"
	case StatusUpToDate:
		return "up-to-date"
	case StatusUpToDateWithUpstreamTypes:
		return "up-to-date-with-upstream-types"
	case StatusOutOfDateWithPrepend:
		return "out-of-date-with-prepend"
	case StatusOutputMissing:
		return "output-missing"
	case StatusOutOfDateWithSelf:
		return "out-of-date-with-self"
	case StatusOutOfDateWithUpstream:
		return "out-of-date-with-upstream"
	case StatusUpstreamOutOfDate:
		return "upstream-out-of-date"
	case StatusUpstreamBlocked:
		return "upstream-blocked"
	case StatusComputingUpstream:
		return "computing-upstream"
	case StatusTsVersionOutputOfDate:
		return "version-out-of-date"
	default:
		return "unknown"
	}
}

// Status is a single project's up-to-date evaluation result, cached in
// State until invalidated. Only one Status is ever live per project key.
type Status struct {
	Kind StatusKind

	Reason string // Unbuildable

	NewestInputTime              time.Time
	NewestInputName              string
	NewestDeclContentChangedTime time.Time
	OldestOutputName              string
	NewestOutputTime              time.Time
	NewestOutputName              string

	OutOfDateOutputName string // OutOfDateWith*
	NewerProjectName    string // OutOfDateWithPrepend, OutOfDateWithUpstream
	NewerInputName      string // OutOfDateWithSelf

	MissingOutputName string // OutputMissing

	UpstreamProjectName string // UpstreamOutOfDate, UpstreamBlocked

	Version string // TsVersionOutputOfDate
}

type expectedOutput struct {
	path          string
	isDeclaration bool
}

// EvaluateStatus computes (or returns the memoized) Up-to-Date Status
// for key, implementing the ten-step up-to-date evaluation algorithm.
// ComputingUpstream is written into the status map before recursing
// into reference upstream evaluation and is never returned to an
// outside caller as a final answer: every recursive call either
// returns a real status or observes ComputingUpstream and treats it as
// "ignore this edge."
func (s *State) EvaluateStatus(key types.CanonicalKey) *Status {
	if st, ok := s.statuses[key]; ok {
		return st
	}
	st := s.evaluateStatusUncached(key)
	if st.Kind != StatusComputingUpstream && s.Registry != nil {
		s.Registry.Register(&registry.ProjectInfo{
			Key:        key,
			ConfigFile: types.ResolvedName(key),
			HasErrors:  st.Kind == StatusUnbuildable || st.Kind == StatusUpstreamBlocked,
		})
	}
	return st
}

// evaluateStatusUncached performs the actual ten-step evaluation; it is
// reached once per key until that key's status is cleared, because
// EvaluateStatus memoizes every return path into s.statuses.
func (s *State) evaluateStatusUncached(key types.CanonicalKey) *Status {
	cfg, diag := s.Cache.Parse(key)
	if diag != nil {
		s.recordDiagnostic(key, diag)
		st := &Status{Kind: StatusUnbuildable, Reason: diag.Message}
		s.statuses[key] = st
		return st
	}

	inputs, err := s.inputFiles(cfg)
	if err != nil {
		st := &Status{Kind: StatusUnbuildable, Reason: err.Error()}
		s.statuses[key] = st
		return st
	}

	var newestInputTime time.Time
	var newestInputName string
	for _, f := range inputs {
		mt, ok := s.FS.GetModifiedTime(f)
		if !ok {
			st := &Status{Kind: StatusUnbuildable, Reason: fmt.Sprintf("input file %s does not exist", f)}
			s.statuses[key] = st
			return st
		}
		if mt.After(newestInputTime) {
			newestInputTime, newestInputName = mt, f
		}
	}

	if len(inputs) == 0 && !cfg.Options.NoInputsIsError {
		st := &Status{Kind: StatusContainerOnly}
		s.statuses[key] = st
		return st
	}

	outputs := s.expectedOutputs(cfg, inputs)

	var oldestOutputTime = host.MaximumDate
	var oldestOutputName string
	var newestOutputTime time.Time
	var newestOutputName string
	var missingOutputName string
	var isOutOfDateWithInputs bool
	newestDeclContentChangedTime := host.MinimumDate

	for _, out := range outputs {
		mt, ok := s.FS.GetModifiedTime(out.path)
		if !ok {
			missingOutputName = out.path
			break
		}
		if mt.Before(oldestOutputTime) {
			oldestOutputTime, oldestOutputName = mt, out.path
		}
		if mt.After(newestOutputTime) {
			newestOutputTime, newestOutputName = mt, out.path
		}
		if mt.Before(newestInputTime) {
			isOutOfDateWithInputs = true
			break
		}
		if out.isDeclaration && mt.After(newestDeclContentChangedTime) {
			newestDeclContentChangedTime = mt
		}
	}

	var usesPrepend bool
	var pseudoUpToDate bool
	var pseudoUpstreamName string

	if len(cfg.References) > 0 {
		s.statuses[key] = &Status{Kind: StatusComputingUpstream}
		for _, ref := range cfg.References {
			refResolved := s.Cache.Resolve(ref.Path)
			refKey := s.Cache.Key(refResolved)
			upstream := s.EvaluateStatus(refKey)

			switch upstream.Kind {
			case StatusComputingUpstream:
				continue
			case StatusUnbuildable:
				st := &Status{Kind: StatusUpstreamBlocked, UpstreamProjectName: string(refResolved)}
				s.statuses[key] = st
				return st
			case StatusContainerOnly:
				// A container project has no outputs of its own to
				// compare timestamps against; treat it as fresh and
				// move on to the next reference.
				continue
			case StatusUpToDate, StatusUpToDateWithUpstreamTypes:
				if missingOutputName != "" {
					continue
				}
				if !upstream.NewestInputTime.After(oldestOutputTime) {
					// no effect: upstream inputs are no newer than our outputs.
				} else if !upstream.NewestDeclContentChangedTime.After(oldestOutputTime) {
					pseudoUpToDate = true
					pseudoUpstreamName = string(refResolved)
					if ref.Prepend {
						usesPrepend = true
					}
				} else {
					st := &Status{Kind: StatusOutOfDateWithUpstream, OutOfDateOutputName: oldestOutputName, NewerProjectName: string(refResolved)}
					s.statuses[key] = st
					return st
				}
			default:
				st := &Status{Kind: StatusUpstreamOutOfDate, UpstreamProjectName: string(refResolved)}
				s.statuses[key] = st
				return st
			}
		}
	}

	if missingOutputName != "" {
		st := &Status{Kind: StatusOutputMissing, MissingOutputName: missingOutputName}
		s.statuses[key] = st
		return st
	}
	if isOutOfDateWithInputs {
		st := &Status{Kind: StatusOutOfDateWithSelf, OutOfDateOutputName: oldestOutputName, NewerInputName: newestInputName}
		s.statuses[key] = st
		return st
	}

	for _, cf := range s.configChain(cfg) {
		mt, ok := s.FS.GetModifiedTime(cf)
		if ok && mt.After(oldestOutputTime) {
			st := &Status{Kind: StatusOutOfDateWithSelf, OutOfDateOutputName: oldestOutputName, NewerInputName: cf}
			s.statuses[key] = st
			return st
		}
	}

	if biPath := buildInfoPathFor(cfg); biPath != "" {
		if info, ok, err := build.ReadBuildInfo(s.FS, biPath); err == nil && ok && info.Version != "" && info.Version != s.Config.Version {
			st := &Status{Kind: StatusTsVersionOutputOfDate, Version: info.Version}
			s.statuses[key] = st
			return st
		}
	}

	if usesPrepend && pseudoUpToDate {
		st := &Status{Kind: StatusOutOfDateWithPrepend, OutOfDateOutputName: oldestOutputName, NewerProjectName: pseudoUpstreamName}
		s.statuses[key] = st
		return st
	}

	kind := StatusUpToDate
	if pseudoUpToDate {
		kind = StatusUpToDateWithUpstreamTypes
	}
	st := &Status{
		Kind:                          kind,
		NewestInputTime:               newestInputTime,
		NewestInputName:               newestInputName,
		NewestDeclContentChangedTime:  newestDeclContentChangedTime,
		OldestOutputName:              oldestOutputName,
		NewestOutputTime:              newestOutputTime,
		NewestOutputName:              newestOutputName,
	}
	s.statuses[key] = st
	return st
}

// InputFiles is the exported form of inputFiles, for callers outside the
// package (the clean command) that need a project's resolved input list
// without going through the full status evaluation.
func (s *State) InputFiles(cfg *types.ParsedConfig) ([]string, error) {
	return s.inputFiles(cfg)
}

// ExpectedOutputs is the exported form of expectedOutputs.
func (s *State) ExpectedOutputs(cfg *types.ParsedConfig, inputs []string) []string {
	outs := s.expectedOutputs(cfg, inputs)
	paths := make([]string, len(outs))
	for i, o := range outs {
		paths[i] = o.path
	}
	return paths
}

// BuildInfoPath is the exported form of buildInfoPathFor.
func (s *State) BuildInfoPath(cfg *types.ParsedConfig) string {
	return buildInfoPathFor(cfg)
}

// inputFiles returns a project's full input list: explicit "files"
// entries plus every file reachable from its wildcard directories.
func (s *State) inputFiles(cfg *types.ParsedConfig) ([]string, error) {
	files := append([]string{}, cfg.FileNames...)
	if len(cfg.WildcardDirectories) > 0 && s.Scanner != nil {
		expanded, err := s.Scanner.Expand(cfg.WildcardDirectories)
		if err != nil {
			return nil, err
		}
		files = append(files, expanded...)
	}
	sort.Strings(files)
	return dedupeStrings(files), nil
}

// expectedOutputs enumerates a project's outputs from its compiler
// options, following the outFile/outDir/declarationDir policy: a
// bundler project (outFile set) has exactly one (optionally two, with
// its declaration) output regardless of input count; otherwise each
// input maps to its own .js and, if declarations are enabled, .d.ts
// sibling.
func (s *State) expectedOutputs(cfg *types.ParsedConfig, inputs []string) []expectedOutput {
	if cfg.Options.OutFile != "" {
		outs := []expectedOutput{{path: cfg.Options.OutFile}}
		if cfg.Options.EmitDeclaration {
			ext := filepath.Ext(cfg.Options.OutFile)
			declPath := strings.TrimSuffix(cfg.Options.OutFile, ext) + ".d.ts"
			outs = append(outs, expectedOutput{path: declPath, isDeclaration: true})
		}
		return outs
	}

	dir := filepath.Dir(string(cfg.ConfigFileName))
	var outs []expectedOutput
	for _, in := range inputs {
		base := in
		if strings.HasSuffix(in, ".d.ts") {
			base = strings.TrimSuffix(in, ".d.ts")
		} else {
			base = strings.TrimSuffix(in, filepath.Ext(in))
		}
		rel, err := filepath.Rel(dir, base)
		if err != nil {
			rel = base
		}

		jsOut := base + ".js"
		if cfg.Options.OutDir != "" {
			jsOut = filepath.Join(cfg.Options.OutDir, rel+".js")
		}
		outs = append(outs, expectedOutput{path: jsOut})

		if cfg.Options.EmitDeclaration {
			declDir := cfg.Options.DeclarationDir
			if declDir == "" {
				declDir = cfg.Options.OutDir
			}
			declOut := base + ".d.ts"
			if declDir != "" {
				declOut = filepath.Join(declDir, rel+".d.ts")
			}
			outs = append(outs, expectedOutput{path: declOut, isDeclaration: true})
		}
	}
	return outs
}

// configChain walks a project's own config file followed by its
// "extends" ancestry, for the config-freshness check.
func (s *State) configChain(cfg *types.ParsedConfig) []string {
	var out []string
	seen := map[string]bool{}
	cur := cfg
	for cur != nil {
		out = append(out, string(cur.ConfigFileName))
		if cur.Extends == nil {
			break
		}
		name := string(*cur.Extends)
		if seen[name] {
			break
		}
		seen[name] = true
		key := s.Cache.Key(*cur.Extends)
		next, diag := s.Cache.Parse(key)
		if diag != nil || next == nil {
			break
		}
		cur = next
	}
	return out
}

// buildInfoPathFor returns the project's build-info artifact path, or
// empty if the project does not persist one.
func buildInfoPathFor(cfg *types.ParsedConfig) string {
	if cfg.Options.TsBuildInfoFile != "" {
		return cfg.Options.TsBuildInfoFile
	}
	if cfg.Options.Incremental || cfg.Options.Composite {
		return filepath.Join(filepath.Dir(string(cfg.ConfigFileName)), ".tsbuildinfo")
	}
	return ""
}
