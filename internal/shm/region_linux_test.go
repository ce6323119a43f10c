//go:build linux

package shm

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegionName(t *testing.T) string {
	t.Helper()
	name := fmt.Sprintf("shmkv_region_test_%d", os.Getpid())
	_ = Unlink(name)
	t.Cleanup(func() { _ = Unlink(name) })
	return name
}

func TestCreateOpenCloseUnlink(t *testing.T) {
	name := testRegionName(t)
	const size = 4096

	r, err := Create(name, size)
	require.NoError(t, err)
	assert.Len(t, r.Addr, size)
	assert.True(t, pathExists(regionPath(name)))
	for _, b := range r.Addr {
		require.Zero(t, b)
	}

	// Bytes written through one mapping are visible through another.
	r.Addr[0] = 0xab
	r2, err := Open(name, size)
	require.NoError(t, err)
	assert.EqualValues(t, 0xab, r2.Addr[0])

	require.NoError(t, Close(r2))
	require.NoError(t, Close(r))
	require.NoError(t, Unlink(name))
	assert.False(t, pathExists(regionPath(name)))
}

func TestCreateIsExclusive(t *testing.T) {
	name := testRegionName(t)
	r, err := Create(name, 4096)
	require.NoError(t, err)
	defer func() { _ = Close(r) }()

	_, err = Create(name, 4096)
	require.Error(t, err)
	assert.True(t, IsExist(err))
}

func TestOpenMissingRegion(t *testing.T) {
	name := testRegionName(t)
	_, err := Open(name, 4096)
	require.Error(t, err)
	assert.True(t, IsNotExist(err))
}

func TestOpenSizeMismatch(t *testing.T) {
	name := testRegionName(t)
	r, err := Create(name, 4096)
	require.NoError(t, err)
	defer func() { _ = Close(r) }()

	_, err = Open(name, 8192)
	require.Error(t, err)
	assert.False(t, IsNotExist(err))
}

func TestUnlinkIdempotent(t *testing.T) {
	name := testRegionName(t)
	require.NoError(t, Unlink(name))
	require.NoError(t, Unlink(name))
}

func TestCloseNilRegion(t *testing.T) {
	require.NoError(t, Close(nil))
	require.NoError(t, Close(&Region{}))
}

func TestNormalizeName(t *testing.T) {
	got, err := NormalizeName("/store")
	require.NoError(t, err)
	assert.Equal(t, "store", got)

	got, err = NormalizeName("store")
	require.NoError(t, err)
	assert.Equal(t, "store", got)

	_, err = NormalizeName("")
	require.Error(t, err)
	_, err = NormalizeName("/")
	require.Error(t, err)
	_, err = NormalizeName("a/b")
	require.Error(t, err)
	_, err = NormalizeName("../escape")
	require.Error(t, err)
}
