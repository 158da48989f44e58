// Package internal contains the core implementation packages for
// projtool, a multi-project incremental build orchestrator.
//
// # Package Organization
//
//   - types: shared project/config/reference types with no dependencies
//     on the rest of the tree, to avoid import cycles
//   - validation: path and filename security checks for config-supplied paths
//   - errors: structured build diagnostics, collected per project
//   - logging: structured logging built on log/slog
//   - host: the FileSystem/Clock/Program/ProgramBuilder/Emitter
//     collaborator interfaces the engine is built against, plus real
//     (OS-backed) and in-memory implementations
//   - config: the project configuration cache (parse, extends-chain
//     resolution, canonical-key resolution)
//   - graph: the dependency graph builder and topological build order
//   - scanner: wildcard-directory input expansion
//   - build: the default Program Builder, build-info persistence, and
//     content hashing used for the declaration byte-equality check
//   - engine: the Up-to-Date Evaluator, the Invalidated-Project Factory,
//     and the Build Driver that together decide what to build and in
//     what order, plus the watch-mode wiring over a file watcher
//   - watcher: debounced file-system watching
//   - reporter: turns engine state into status lines and a final summary
//   - registry: in-memory bookkeeping of known projects and their events
//   - version: build-time version metadata
package internal
