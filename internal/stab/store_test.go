package stab

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testData(n int) *Data {
	d := &Data{
		TrajectoryData:     make(map[int]Trajectory, n),
		TransformationData: make(map[int]RelativeTransform, n),
	}
	for i := 0; i < n; i++ {
		f := float64(i)
		d.TrajectoryData[i] = Trajectory{X: 1.25 * f, Y: -0.5 * f, A: 0.001 * f}
		d.TransformationData[i] = RelativeTransform{Dx: 0.75 * f, Dy: f, Da: -0.002 * f}
	}
	return d
}

// float32Tolerance compares persisted values: the wire format is single
// precision, so exact equality is out of contract.
var float32Tolerance = cmpopts.EquateApprox(1e-6, 1e-4)

func TestMarshal_WireFormat(t *testing.T) {
	t.Parallel()

	d := &Data{
		TrajectoryData:     map[int]Trajectory{3: {X: 1.5, Y: -2.5, A: 0.5}},
		TransformationData: map[int]RelativeTransform{3: {Dx: 3.25, Dy: 0, Da: -0.125}},
	}
	buf, err := Marshal(d, time.Unix(0, 0))
	require.NoError(t, err)

	// One frame entry: field 1, length-delimited, 32 payload bytes
	// (varint id + six fixed32 floats). Existing saved files depend on
	// these exact tags and types.
	wantFrame := []byte{
		0x0a, 0x20, // frame entry header
		0x08, 0x03, // id = 3
		0x15, 0x00, 0x00, 0xc0, 0x3f, // x = 1.5
		0x1d, 0x00, 0x00, 0x20, 0xc0, // y = -2.5
		0x25, 0x00, 0x00, 0x00, 0x3f, // a = 0.5
		0x2d, 0x00, 0x00, 0x50, 0x40, // dx = 3.25
		0x35, 0x00, 0x00, 0x00, 0x00, // dy = 0
		0x3d, 0x00, 0x00, 0x00, 0xbe, // da = -0.125
	}
	require.GreaterOrEqual(t, len(buf), len(wantFrame))
	assert.Equal(t, wantFrame, buf[:len(wantFrame)])
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "clip.stab")
	d := testData(40)
	require.NoError(t, d.Save(path))

	var loaded Data
	require.NoError(t, loaded.Load(path))

	// Frame indices must round-trip exactly; values only to float32
	// precision.
	require.Len(t, loaded.TrajectoryData, 40)
	require.Len(t, loaded.TransformationData, 40)
	assert.Empty(t, cmp.Diff(d.TrajectoryData, loaded.TrajectoryData, float32Tolerance))
	assert.Empty(t, cmp.Diff(d.TransformationData, loaded.TransformationData, float32Tolerance))
	assert.WithinDuration(t, d.LastUpdated, loaded.LastUpdated, time.Second)
}

func TestLoad_SecondLoadReplacesFirst(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	big := filepath.Join(dir, "big.stab")
	small := filepath.Join(dir, "small.stab")
	require.NoError(t, testData(20).Save(big))
	require.NoError(t, testData(5).Save(small))

	var d Data
	require.NoError(t, d.Load(big))
	require.Len(t, d.TransformationData, 20)

	// No accumulation or stale entries from the first load.
	require.NoError(t, d.Load(small))
	assert.Len(t, d.TransformationData, 5)
	assert.Len(t, d.TrajectoryData, 5)
}

func TestLoad_MalformedFileLeavesDataUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.stab")
	bad := filepath.Join(dir, "bad.stab")
	require.NoError(t, testData(8).Save(good))
	require.NoError(t, os.WriteFile(bad, []byte{0xff, 0xff, 0xff, 0x01, 0x02}, 0644))

	var d Data
	require.NoError(t, d.Load(good))
	before := d.TransformationData

	err := d.Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
	assert.Len(t, d.TransformationData, 8)
	assert.Equal(t, before, d.TransformationData)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	var d Data
	err := d.Load(filepath.Join(t.TempDir(), "nope.stab"))
	assert.Error(t, err)
	assert.Nil(t, d.TransformationData)
}

func TestSave_UnwritableSink(t *testing.T) {
	t.Parallel()

	err := testData(3).Save(filepath.Join(t.TempDir(), "missing-dir", "clip.stab"))
	assert.Error(t, err)
}

func TestMarshal_MismatchedMaps(t *testing.T) {
	t.Parallel()

	d := &Data{
		TrajectoryData:     map[int]Trajectory{0: {}, 1: {}},
		TransformationData: map[int]RelativeTransform{0: {}},
	}
	_, err := Marshal(d, time.Now())
	assert.Error(t, err)
}

func TestUnmarshal_Garbage(t *testing.T) {
	t.Parallel()

	_, err := Unmarshal([]byte{0x9b, 0x00, 0x12})
	assert.Error(t, err)
}
