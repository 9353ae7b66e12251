// Package cliutil holds flag plumbing shared by the CLI commands.
package cliutil

import (
	"fmt"
	"strings"

	"github.com/docmodelhq/corpus/storage"
)

// DefaultNamespace is the namespace used when commands are given a bare root
// directory instead of explicit mounts.
const DefaultNamespace = "local"

// ParseMountSpec splits a "namespace=directory" flag value.
func ParseMountSpec(spec string) (namespace, dir string, err error) {
	idx := strings.Index(spec, "=")
	if idx <= 0 || idx == len(spec)-1 {
		return "", "", fmt.Errorf("invalid mount %q (expected namespace=directory)", spec)
	}
	return spec[:idx], spec[idx+1:], nil
}

// MountLocalRoots mounts a local adapter per --mount flag and selects the
// default namespace. When no mounts are given, rootDir is mounted under
// DefaultNamespace. It returns the mounted roots keyed by namespace so
// callers (the watch command) can observe them.
func MountLocalRoots(man *storage.Manager, mountSpecs []string, rootDir, defaultNamespace string) (map[string]string, error) {
	roots := make(map[string]string)

	if len(mountSpecs) == 0 {
		if rootDir == "" {
			rootDir = "."
		}
		adapter, err := storage.NewLocalAdapter(rootDir)
		if err != nil {
			return nil, err
		}
		namespace := defaultNamespace
		if namespace == "" {
			namespace = DefaultNamespace
		}
		man.Mount(namespace, adapter)
		man.SetDefaultNamespace(namespace)
		roots[namespace] = adapter.Root()
		return roots, nil
	}

	for _, spec := range mountSpecs {
		namespace, dir, err := ParseMountSpec(spec)
		if err != nil {
			return nil, err
		}
		adapter, err := storage.NewLocalAdapter(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to mount %q: %w", spec, err)
		}
		man.Mount(namespace, adapter)
		roots[namespace] = adapter.Root()
	}

	if defaultNamespace == "" {
		if len(mountSpecs) == 1 {
			defaultNamespace, _, _ = ParseMountSpec(mountSpecs[0])
		} else {
			return nil, fmt.Errorf("--namespace is required with multiple mounts")
		}
	}
	if _, ok := man.Adapter(defaultNamespace); !ok {
		return nil, fmt.Errorf("default namespace %q has no mount", defaultNamespace)
	}
	man.SetDefaultNamespace(defaultNamespace)
	return roots, nil
}
