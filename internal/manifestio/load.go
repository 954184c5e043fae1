// Package manifestio implements the loader boundary from spec.md §4.G: it
// parses YAML manifest/task files into the core action.Manifest/action.Task
// types, verifies file signatures when the manifest key's allowed-signers
// file is installed, and flattens the result into the ordered
// (host, HostAction-template, vars) stream the executor consumes.
package manifestio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/edev/sira/internal/action"
	"github.com/edev/sira/internal/errs"
	"github.com/edev/sira/internal/signing"
	"gopkg.in/yaml.v3"
)

// sniffDoc is decoded once per YAML document to tell which type it is: a
// Manifest document has "hosts", a Task document has "actions". Spec.md §6
// rejects mixing both kinds of document in one file.
type sniffDoc struct {
	Hosts   *[]string    `yaml:"hosts"`
	Actions *[]yaml.Node `yaml:"actions"`
}

// FileSet is every manifest and task file loaded for a run, keyed by
// absolute path, so Manifest.Include entries (resolved relative to the
// manifest's own file) can be looked up once and reused if several
// manifests include the same task file.
type FileSet struct {
	manifestsByPath map[string][]*action.Manifest
	tasksByPath     map[string][]*action.Task
}

// Manifests loaded by LoadManifests's top-level paths, in first-mention
// order across those paths (include-only manifests, if any, are appended
// after).
func LoadManifests(paths []string) ([]*action.Manifest, *FileSet, error) {
	fs := &FileSet{
		manifestsByPath: map[string][]*action.Manifest{},
		tasksByPath:     map[string][]*action.Task{},
	}

	var top []*action.Manifest
	for _, p := range paths {
		ms, err := fs.loadManifestFile(p)
		if err != nil {
			return nil, nil, err
		}
		top = append(top, ms...)
	}

	// Resolve every include transitively so FileSet.tasksByPath is complete
	// before Flatten runs.
	queue := append([]*action.Manifest{}, top...)
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		dir := filepath.Dir(m.Source)
		for _, inc := range m.Include {
			incPath := resolvePath(dir, inc)
			if _, ok := fs.tasksByPath[incPath]; ok {
				continue
			}
			if _, ok := fs.manifestsByPath[incPath]; ok {
				continue
			}
			tasks, more, err := fs.loadFile(incPath)
			if err != nil {
				return nil, nil, err
			}
			fs.tasksByPath[incPath] = tasks
			queue = append(queue, more...)
			top = append(top, more...)
		}
	}

	for _, m := range top {
		if err := m.Validate(); err != nil {
			return nil, nil, errs.ConfigError(err).WithFile(m.Source)
		}
	}

	return top, fs, nil
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(baseDir, p))
}

func (fs *FileSet) loadManifestFile(path string) ([]*action.Manifest, error) {
	if ms, ok := fs.manifestsByPath[path]; ok {
		return ms, nil
	}
	raw, err := readAndVerify(path)
	if err != nil {
		return nil, err
	}
	kind, err := sniffKind(path, raw)
	if err != nil {
		return nil, err
	}
	if kind != kindManifest {
		return nil, errs.ConfigError(fmt.Errorf("%s: expected a manifest document (hosts:) but found a task document", path)).WithFile(path)
	}
	ms, err := decodeManifests(path, raw)
	if err != nil {
		return nil, err
	}
	fs.manifestsByPath[path] = ms
	return ms, nil
}

// loadFile loads path not knowing in advance whether it holds manifests or
// tasks (used while walking `include`, whose targets are conventionally
// task files but aren't required to be). It returns the tasks found (empty
// if the file held manifests) and those manifests so callers can keep
// walking their includes too.
func (fs *FileSet) loadFile(path string) ([]*action.Task, []*action.Manifest, error) {
	raw, err := readAndVerify(path)
	if err != nil {
		return nil, nil, err
	}
	kind, err := sniffKind(path, raw)
	if err != nil {
		return nil, nil, err
	}
	if kind == kindTask {
		tasks, err := decodeTasks(path, raw)
		if err != nil {
			return nil, nil, err
		}
		return tasks, nil, nil
	}
	ms, err := decodeManifests(path, raw)
	if err != nil {
		return nil, nil, err
	}
	fs.manifestsByPath[path] = ms
	return nil, ms, nil
}

// TasksFor returns the tasks named by a manifest's include list, resolved
// relative to the manifest's own source file, in include order. It errors
// if an include path was never loaded (shouldn't happen after LoadManifests
// completes its transitive walk).
func (fs *FileSet) TasksFor(m *action.Manifest) ([]*action.Task, error) {
	dir := filepath.Dir(m.Source)
	var out []*action.Task
	for _, inc := range m.Include {
		incPath := resolvePath(dir, inc)
		tasks, ok := fs.tasksByPath[incPath]
		if !ok {
			return nil, errs.ConfigError(fmt.Errorf("%s: include %q did not resolve to a loaded task file", m.Source, inc)).WithFile(m.Source)
		}
		out = append(out, tasks...)
	}
	return out, nil
}

type docKind int

const (
	kindManifest docKind = iota
	kindTask
)

func sniffKind(path string, raw []byte) (docKind, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	sawManifest, sawTask := false, false
	for {
		var s sniffDoc
		err := dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, errs.ConfigError(fmt.Errorf("parsing %s: %w", path, err)).WithFile(path)
		}
		if s.Hosts != nil {
			sawManifest = true
		}
		if s.Actions != nil {
			sawTask = true
		}
	}
	switch {
	case sawManifest && sawTask:
		return 0, errs.ConfigError(fmt.Errorf("%s: mixing manifest and task documents in one file is rejected", path)).WithFile(path)
	case sawManifest:
		return kindManifest, nil
	case sawTask:
		return kindTask, nil
	default:
		return 0, errs.ConfigError(fmt.Errorf("%s: document is neither a manifest (hosts:) nor a task (actions:)", path)).WithFile(path)
	}
}

func decodeManifests(path string, raw []byte) ([]*action.Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var out []*action.Manifest
	for {
		var m action.Manifest
		err := dec.Decode(&m)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.ConfigError(fmt.Errorf("parsing %s: %w", path, err)).WithFile(path)
		}
		m.Source = path
		out = append(out, &m)
	}
	return out, nil
}

func decodeTasks(path string, raw []byte) ([]*action.Task, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var out []*action.Task
	for {
		var t action.Task
		err := dec.Decode(&t)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errs.ConfigError(fmt.Errorf("parsing %s: %w", path, err)).WithFile(path)
		}
		t.Source = path
		if err := t.Validate(); err != nil {
			return nil, errs.ConfigError(err).WithFile(path)
		}
		out = append(out, &t)
	}
	return out, nil
}

// readAndVerify reads path and enforces spec.md §4.B's manifest-surface
// signature table against its sibling .sig file.
func readAndVerify(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.ConfigError(fmt.Errorf("reading %s: %w", path, err)).WithFile(path)
	}

	verifierPresent, err := signing.Installed("manifest")
	if err != nil {
		return nil, errs.InternalError(err).WithFile(path)
	}

	sigBytes, sigErr := os.ReadFile(path + ".sig")
	signed := sigErr == nil

	if err := signing.Enforce(signed, verifierPresent); err != nil {
		return nil, errs.SignatureError(fmt.Errorf("%s: %w", path, err)).WithFile(path)
	}
	if signing.RequireVerification(signed, verifierPresent) {
		if err := signing.Verify(raw, sigBytes, "manifest"); err != nil {
			return nil, errs.SignatureError(fmt.Errorf("%s: %w", path, err)).WithFile(path)
		}
	}
	return raw, nil
}
