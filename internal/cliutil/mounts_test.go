package cliutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docmodelhq/corpus/storage"
)

func TestParseMountSpec(t *testing.T) {
	namespace, dir, err := ParseMountSpec("cdm=/tmp/schemas")
	require.NoError(t, err)
	require.Equal(t, "cdm", namespace)
	require.Equal(t, "/tmp/schemas", dir)

	for _, invalid := range []string{"", "cdm", "=dir", "cdm="} {
		_, _, err := ParseMountSpec(invalid)
		require.Error(t, err, "spec %q", invalid)
	}
}

func TestMountLocalRoots_BareRoot(t *testing.T) {
	man := storage.NewManager()
	root := t.TempDir()

	roots, err := MountLocalRoots(man, nil, root, "")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Contains(t, roots, DefaultNamespace)
	require.Equal(t, DefaultNamespace, man.DefaultNamespace())

	_, ok := man.Adapter(DefaultNamespace)
	require.True(t, ok)
}

func TestMountLocalRoots_SingleMountBecomesDefault(t *testing.T) {
	man := storage.NewManager()

	roots, err := MountLocalRoots(man, []string{"erp=" + t.TempDir()}, "", "")
	require.NoError(t, err)
	require.Contains(t, roots, "erp")
	require.Equal(t, "erp", man.DefaultNamespace())
}

func TestMountLocalRoots_MultipleMountsNeedExplicitDefault(t *testing.T) {
	man := storage.NewManager()
	specs := []string{"a=" + t.TempDir(), "b=" + t.TempDir()}

	_, err := MountLocalRoots(man, specs, "", "")
	require.Error(t, err)

	roots, err := MountLocalRoots(man, specs, "", "b")
	require.NoError(t, err)
	require.Len(t, roots, 2)
	require.Equal(t, "b", man.DefaultNamespace())
}

func TestMountLocalRoots_DefaultMustBeMounted(t *testing.T) {
	man := storage.NewManager()

	_, err := MountLocalRoots(man, []string{"a=" + t.TempDir()}, "", "other")
	require.Error(t, err)
}
