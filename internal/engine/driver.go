package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/conneroisu/projtool/internal/build"
	projerr "github.com/conneroisu/projtool/internal/errors"
	"github.com/conneroisu/projtool/internal/host"
	"github.com/conneroisu/projtool/internal/types"
)

// Build is the one-shot build(project?) entry point. An empty project
// restricts nothing and builds every root's transitive closure; a
// non-empty project name restricts the build to that project's own
// transitive dependencies via buildOrderFor.
func (s *State) Build(ctx context.Context, roots []string, project string) (ExitStatus, error) {
	order, diag, ok := s.resolveOrder(roots, project)
	if diag != nil {
		return InvalidProjectOutputsSkipped, diag
	}
	if !ok {
		return InvalidProjectOutputsSkipped, fmt.Errorf("invalid project: %s", project)
	}

	s.setupInitialBuild(order)
	s.EnableCache()
	defer s.DisableCache()

	for {
		if err := ctx.Err(); err != nil {
			return Success, err
		}
		action, ok := s.GetNextInvalidatedProject(order)
		if !ok {
			break
		}
		if _, err := action.Done(ctx); err != nil && ctx.Err() != nil {
			return Success, ctx.Err()
		}
		s.queueReferencingProjects(order, action.Key)
	}

	return s.summarizeExit(order), nil
}

// BuildNextProject performs one iteration of Build's loop: it dequeues
// and executes a single invalidated project, then propagates the
// consequences downstream. Used by the Watch Orchestrator to re-enter
// the driver after a debounced file-system event rather than calling
// Build's own loop from scratch.
func (s *State) BuildNextProject(ctx context.Context, order []types.CanonicalKey) (types.CanonicalKey, bool, error) {
	action, ok := s.GetNextInvalidatedProject(order)
	if !ok {
		return "", false, nil
	}
	_, err := action.Done(ctx)
	s.queueReferencingProjects(order, action.Key)
	return action.Key, true, err
}

func (s *State) resolveOrder(roots []string, project string) (order []types.CanonicalKey, diag *projerr.Diagnostic, ok bool) {
	if project == "" {
		order, diag = s.Graph.BuildOrder(roots)
		return order, diag, diag == nil
	}
	resolved := s.Cache.Resolve(project)
	key := s.Cache.Key(resolved)
	order, diag = s.Graph.BuildOrderFor(roots, key)
	if diag != nil {
		return nil, diag, false
	}
	for _, k := range order {
		if k == key {
			return order, nil, true
		}
	}
	return order, nil, false
}

func (s *State) setupInitialBuild(order []types.CanonicalKey) {
	for _, key := range order {
		s.markPending(key, ReloadNone)
	}
}

func (s *State) summarizeExit(order []types.CanonicalKey) ExitStatus {
	anyError, anySuccess := false, false
	for _, key := range order {
		if s.Diagnostics.HasErrors(string(key)) {
			anyError = true
		} else if st, ok := s.statuses[key]; !ok || (st.Kind != StatusUpstreamBlocked && st.Kind != StatusUnbuildable) {
			// A project skipped because an upstream failed produced no
			// output, so it does not count as a success.
			anySuccess = true
		}
	}
	switch {
	case !anyError:
		return Success
	case anySuccess:
		return DiagnosticsPresentOutputsGenerated
	default:
		return DiagnosticsPresentOutputsSkipped
	}
}

// runBuild executes the full compiler pipeline for one project's Build
// action: create a program, check diagnostics in strict stages, emit
// with declaration byte-equality comparison, and touch any output the
// emitter didn't write.
func (s *State) runBuild(ctx context.Context, a *Action) (BuildResultFlags, error) {
	cfg := a.Config
	key := a.Key

	if s.Config.Dry {
		s.Log.Info(ctx, "would build project", "project", string(cfg.ConfigFileName))
		return ResultNone, nil
	}

	inputs, err := s.inputFiles(cfg)
	if err != nil {
		return ResultNone, err
	}
	if len(inputs) == 0 {
		return ResultNone, nil
	}

	prog, err := s.Programs.CreateProgram(ctx, host.CreateProgramRequest{
		Files:        inputs,
		Options:      cfg.Options.Raw,
		OldProgram:   s.oldPrograms[key],
		ConfigErrors: diagnosticMessages(s.Diagnostics.For(string(key))),
		ProjectDir:   filepath.Dir(string(cfg.ConfigFileName)),
	})
	if err != nil {
		s.setUnbuildable(key, "failed to create program")
		return ResultConfigErrors, err
	}

	stages := []struct {
		name  string
		diags []string
		flag  BuildResultFlags
		stage projerr.Stage
	}{
		{"config file", prog.ConfigFileDiagnostics(), ResultConfigErrors, projerr.StageConfigFile},
		{"options", prog.OptionsDiagnostics(), ResultConfigErrors, projerr.StageOptions},
		{"global", prog.GlobalDiagnostics(), ResultConfigErrors, projerr.StageGlobal},
		{"syntactic", prog.SyntacticDiagnostics(), ResultSyntaxErrors, projerr.StageSyntactic},
	}
	for _, st := range stages {
		if len(st.diags) > 0 {
			s.recordDiagnostics(key, st.stage, st.diags)
			s.setUnbuildable(key, fmt.Sprintf("%s errors", st.name))
			return st.flag, fmt.Errorf("%s errors in %s", st.name, cfg.ConfigFileName)
		}
	}
	if sem := prog.SemanticDiagnostics(); len(sem) > 0 {
		s.recordDiagnostics(key, projerr.StageSemantic, sem)
		s.setUnbuildable(key, "type errors")
		return ResultTypeErrors, fmt.Errorf("type errors in %s", cfg.ConfigFileName)
	}

	prog.BackupState()
	emitter := newCollectingEmitter(s.FS, s.Hashes)
	emitDiags, err := prog.Emit(ctx, emitter)
	if err != nil || len(prog.DeclarationDiagnostics()) > 0 {
		prog.RestoreState()
		if declDiags := prog.DeclarationDiagnostics(); len(declDiags) > 0 {
			s.recordDiagnostics(key, projerr.StageDeclarationEmit, declDiags)
		}
		s.setUnbuildable(key, "declaration emit failed")
		if err == nil {
			err = fmt.Errorf("declaration emit errors in %s", cfg.ConfigFileName)
		}
		return ResultDeclarationErrors, err
	}

	var flags BuildResultFlags
	if len(emitDiags) > 0 {
		s.recordDiagnostics(key, projerr.StageEmit, emitDiags)
		flags |= ResultEmitErrors
	}

	now := s.now()
	outputs := s.expectedOutputs(cfg, inputs)
	newestDecl := emitter.newestDeclTime(host.MinimumDate)

	for _, out := range outputs {
		if emitter.wasEmitted(out.path) {
			continue
		}
		if err := s.FS.SetModifiedTime(out.path, now); err != nil {
			continue
		}
		if out.isDeclaration {
			if mt, ok := s.FS.GetModifiedTime(out.path); ok && mt.After(newestDecl) {
				newestDecl = mt
			}
		}
	}

	if emitter.declarationChanged {
		newestDecl = host.MaximumDate
	}

	s.statuses[key] = &Status{
		Kind:                          StatusUpToDate,
		NewestInputTime:               latestModTime(s.FS, inputs),
		NewestDeclContentChangedTime:  newestDecl,
		OldestOutputName:              firstOutputPath(outputs),
		NewestOutputTime:              now,
	}
	s.Diagnostics.Clear(string(key))

	if biPath := buildInfoPathFor(cfg); biPath != "" {
		_ = build.WriteBuildInfo(s.FS, biPath, &build.Info{
			Version:      s.Config.Version,
			BuiltAt:      now,
			OutputHashes: emitter.hashes,
		})
	}

	s.oldPrograms[key] = prog
	return flags, nil
}

// runUpdateBundle executes the UpdateBundle action: regenerate
// non-declaration outputs from persisted build-info without creating a
// full program. If the build-info artifact cannot be read or applied,
// it returns errBuildInfoUnreadable so Action.Done converts this into
// a full Build.
func (s *State) runUpdateBundle(ctx context.Context, a *Action) (BuildResultFlags, error) {
	cfg := a.Config
	key := a.Key

	if s.Config.Dry {
		s.Log.Info(ctx, "would update bundle", "project", string(cfg.ConfigFileName))
		return ResultNone, nil
	}

	biPath := buildInfoPathFor(cfg)
	if biPath == "" {
		return ResultNone, errBuildInfoUnreadable
	}
	if err := s.Programs.EmitUsingBuildInfo(ctx, host.BuildInfoEmitRequest{
		BuildInfoPath: biPath,
		ProjectDir:    filepath.Dir(string(cfg.ConfigFileName)),
	}); err != nil {
		return ResultNone, errBuildInfoUnreadable
	}

	inputs, _ := s.inputFiles(cfg)
	now := s.now()
	for _, out := range s.expectedOutputs(cfg, inputs) {
		if out.isDeclaration {
			continue
		}
		_ = s.FS.SetModifiedTime(out.path, now)
	}

	s.statuses[key] = &Status{Kind: StatusUpToDate, NewestInputTime: latestModTime(s.FS, inputs), NewestOutputTime: now}
	s.Diagnostics.Clear(string(key))
	return ResultNone, nil
}

// runUpdateOutputFileStamps executes the UpdateOutputFileStamps action:
// every expected output is touched to now without invoking the Program
// Builder at all, used when only upstream declaration timestamps moved
// and their content did not change.
func (s *State) runUpdateOutputFileStamps(ctx context.Context, a *Action) (BuildResultFlags, error) {
	cfg := a.Config
	key := a.Key

	if s.Config.Dry {
		s.Log.Info(ctx, "would update output timestamps", "project", string(cfg.ConfigFileName))
		return ResultNone, nil
	}

	inputs, _ := s.inputFiles(cfg)
	outputs := s.expectedOutputs(cfg, inputs)
	now := s.now()
	newestDecl := host.MinimumDate
	for _, out := range outputs {
		if out.isDeclaration {
			if mt, ok := s.FS.GetModifiedTime(out.path); ok && mt.After(newestDecl) {
				newestDecl = mt
			}
		}
		_ = s.FS.SetModifiedTime(out.path, now)
	}

	s.statuses[key] = &Status{
		Kind:                          StatusUpToDate,
		NewestInputTime:               latestModTime(s.FS, inputs),
		NewestDeclContentChangedTime:  newestDecl,
		NewestOutputTime:              now,
	}
	return ResultNone, nil
}

// queueReferencingProjects propagates the consequences of a successful
// build to every downstream composite project later in the build
// order. Skipped entirely if the just-finished project has any
// recorded error.
func (s *State) queueReferencingProjects(order []types.CanonicalKey, built types.CanonicalKey) {
	if s.Diagnostics.HasErrors(string(built)) {
		return
	}
	builtStatus := s.statuses[built]
	declChanged := builtStatus != nil && !builtStatus.NewestDeclContentChangedTime.Before(host.MaximumDate)

	foundBuilt := false
	for _, key := range order {
		if key == built {
			foundBuilt = true
			continue
		}
		if !foundBuilt {
			continue
		}

		cfg, diag := s.Cache.Parse(key)
		if diag != nil || !cfg.Options.Composite {
			continue
		}

		var matchedRef *types.Reference
		for i := range cfg.References {
			ref := &cfg.References[i]
			refResolved := s.Cache.Resolve(ref.Path)
			if s.Cache.Key(refResolved) == built {
				matchedRef = ref
				break
			}
		}
		if matchedRef == nil {
			continue
		}

		cur := s.statuses[key]
		switch {
		case cur != nil && cur.Kind == StatusUpToDate && !declChanged:
			if matchedRef.Prepend {
				s.statuses[key] = &Status{Kind: StatusOutOfDateWithPrepend, OutOfDateOutputName: cur.OldestOutputName, NewerProjectName: string(built)}
			} else {
				s.statuses[key] = &Status{Kind: StatusUpToDateWithUpstreamTypes, NewestInputTime: cur.NewestInputTime, OldestOutputName: cur.OldestOutputName, NewestOutputTime: cur.NewestOutputTime}
			}
		case cur != nil && declChanged && (cur.Kind == StatusUpToDate || cur.Kind == StatusUpToDateWithUpstreamTypes || cur.Kind == StatusOutOfDateWithPrepend):
			s.statuses[key] = &Status{Kind: StatusOutOfDateWithUpstream, OutOfDateOutputName: cur.OldestOutputName, NewerProjectName: string(built)}
		case cur != nil && cur.Kind == StatusUpstreamBlocked && cur.UpstreamProjectName == string(built):
			s.clearStatus(key)
		}

		s.markPending(key, ReloadNone)
	}
}

func (s *State) setUnbuildable(key types.CanonicalKey, reason string) {
	s.statuses[key] = &Status{Kind: StatusUnbuildable, Reason: reason}
}

func diagnosticMessages(diags []projerr.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Message
	}
	return out
}

func latestModTime(fs host.FileSystem, files []string) time.Time {
	var newest time.Time
	for _, f := range files {
		if mt, ok := fs.GetModifiedTime(f); ok && mt.After(newest) {
			newest = mt
		}
	}
	return newest
}

func firstOutputPath(outputs []expectedOutput) string {
	if len(outputs) == 0 {
		return ""
	}
	return outputs[0].path
}
