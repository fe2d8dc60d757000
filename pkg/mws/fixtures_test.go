package mws_test

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/mwslabels/pkg/mws"
)

func TestDefaultFixtures(t *testing.T) {
	data, err := mws.DefaultFixtures().LoadFixture("GetUniquePackageLabels")
	require.NoError(t, err)
	assert.Contains(t, string(data), "<GetUniquePackageLabelsResult>")
}

func TestFSFixtures_NotFound(t *testing.T) {
	_, err := mws.NewFSFixtures(fstest.MapFS{}).LoadFixture("GetUniquePackageLabels")
	assert.ErrorIs(t, err, mws.ErrFixtureNotFound)
}

func TestDirFixtures(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GetUniquePackageLabels.xml"), []byte("<x/>"), 0o600))

	data, err := mws.DirFixtures(dir).LoadFixture("GetUniquePackageLabels")
	require.NoError(t, err)
	assert.Equal(t, "<x/>", string(data))
}
