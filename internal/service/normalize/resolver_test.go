package normalize

import (
	"sync"
	"testing"

	"github.com/bxcodec/faker/v4"
	"github.com/cmlabs-hris/attendance-normalizer-go/internal/domain/directory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeEntry(t *testing.T, id string) directory.Entry {
	t.Helper()
	var e directory.Entry
	require.NoError(t, faker.FakeData(&e))
	e.EmployeeID = id
	e.EmployeeCode = ""
	e.DeviceID = ""
	e.GatePassNo = ""
	e.DisplayName = faker.Name()
	return e
}

func TestNormalizeID(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" 0042 ":     "42",
		"42.0":       "42",
		"42.000":     "42",
		"12.5":       "12.5",
		"pmp0005515": "PMP0005515",
		"000":        "0",
		"\u00a0E01":  "E01",
		"":           "",
	}
	for raw, want := range cases {
		assert.Equal(t, want, NormalizeID(raw), "raw %q", raw)
	}
}

func TestResolver_ResolveAcrossSchemes(t *testing.T) {
	t.Parallel()

	// Arrange
	byGatePass := fakeEntry(t, "HR-EMP-0001")
	byGatePass.GatePassNo = "PMP0005515"
	byDevice := fakeEntry(t, "HR-EMP-0002")
	byDevice.DeviceID = "00123"
	byCode := fakeEntry(t, "HR-EMP-0003")
	byCode.EmployeeCode = "E-77"
	snapshot := NewSnapshot([]directory.Entry{byGatePass, byDevice, byCode})
	resolver := NewResolver(snapshot)

	// Act & Assert
	assert.Equal(t, "HR-EMP-0001", resolver.Resolve("pmp0005515"))
	assert.Equal(t, "HR-EMP-0002", resolver.Resolve("123"))
	assert.Equal(t, "HR-EMP-0002", resolver.Resolve("123.0"))
	assert.Equal(t, "HR-EMP-0003", resolver.Resolve(" e-77 "))
	assert.Equal(t, "HR-EMP-0003", resolver.Resolve("HR-EMP-0003"))
	assert.Equal(t, 3, snapshot.Len())
	assert.Empty(t, resolver.Unresolved())
}

func TestResolver_GatePassWinsOverDeviceID(t *testing.T) {
	t.Parallel()

	// Arrange
	gate := fakeEntry(t, "HR-EMP-0010")
	gate.GatePassNo = "500"
	device := fakeEntry(t, "HR-EMP-0020")
	device.DeviceID = "500"
	resolver := NewResolver(NewSnapshot([]directory.Entry{device, gate}))

	// Act
	id := resolver.Resolve("500")

	// Assert
	assert.Equal(t, "HR-EMP-0010", id)
}

func TestResolver_IsIdempotent(t *testing.T) {
	t.Parallel()

	e := fakeEntry(t, "HR-EMP-0001")
	e.DeviceID = "77"
	resolver := NewResolver(NewSnapshot([]directory.Entry{e}))

	first := resolver.Resolve("077")
	second := resolver.Resolve("077")

	assert.Equal(t, first, second)
	assert.Equal(t, "HR-EMP-0001", first)
}

func TestResolver_UnresolvedRecordedOncePerID(t *testing.T) {
	t.Parallel()

	// Arrange
	resolver := NewResolver(NewSnapshot(nil))

	// Act
	for _, raw := range []string{"X1", "x1 ", "X2", "X1", "", "  "} {
		assert.Empty(t, resolver.Resolve(raw))
	}

	// Assert
	assert.Equal(t, []string{"X1", "X2"}, resolver.Unresolved())
}

func TestResolver_SkipsEntriesWithoutEmployeeID(t *testing.T) {
	t.Parallel()

	e := fakeEntry(t, "")
	e.DeviceID = "900"
	resolver := NewResolver(NewSnapshot([]directory.Entry{e}))

	_, ok := resolver.Lookup("900")

	assert.False(t, ok)
	assert.Equal(t, []string{"900"}, resolver.Unresolved())
}

func TestResolver_NarrowedSchemes(t *testing.T) {
	t.Parallel()

	e := fakeEntry(t, "HR-EMP-0005")
	e.DeviceID = "31"
	resolver := NewResolver(NewSnapshot([]directory.Entry{e}), SchemeGatePass)

	assert.Empty(t, resolver.Resolve("31"))
	assert.Equal(t, []string{"31"}, resolver.Unresolved())
}

func TestResolver_ConcurrentLookups(t *testing.T) {
	t.Parallel()

	// Arrange
	e := fakeEntry(t, "HR-EMP-0001")
	e.DeviceID = "1"
	snapshot := NewSnapshot([]directory.Entry{e})
	resolver := NewResolver(snapshot)

	// Act
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolver.Resolve("1")
			resolver.Resolve("MISSING")
		}()
	}
	wg.Wait()

	// Assert
	assert.Equal(t, []string{"MISSING"}, resolver.Unresolved())
}
