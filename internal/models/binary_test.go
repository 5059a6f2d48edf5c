package models

import (
	"bytes"
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadBitmap(t *testing.T) {
	bm := roaring.New()
	bm.Add(42)
	bm.Add(1000000)

	var buf bytes.Buffer
	require.NoError(t, writeBitmap(&buf, bm))

	got, err := readBitmap(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, got.Contains(42))
	assert.True(t, got.Contains(1000000))
	assert.Equal(t, uint64(2), got.GetCardinality())
}

func TestWriteReadBitmap_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeBitmap(&buf, roaring.New()))

	got, err := readBitmap(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.GetCardinality())
}

func TestWriteReadStreakRecord(t *testing.T) {
	days := roaring.New()
	days.Add(20000)
	days.Add(20001)
	days.Add(20010)

	updatedAt := time.Date(2025, 12, 25, 10, 30, 0, 0, time.UTC)

	sr := &StreakRecord{
		days:      days,
		updatedAt: updatedAt,
	}

	var buf bytes.Buffer
	require.NoError(t, writeStreakRecord(&buf, sr))

	got, err := readStreakRecord(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	// Verify days bitmap
	assert.True(t, got.days.Contains(20000))
	assert.True(t, got.days.Contains(20001))
	assert.True(t, got.days.Contains(20010))
	assert.False(t, got.days.Contains(20002))
	assert.Equal(t, uint64(3), got.days.GetCardinality())

	// Verify updatedAt
	assert.Equal(t, updatedAt.UnixNano(), got.updatedAt.UnixNano())
}

func TestWriteReadStreakRecord_Empty(t *testing.T) {
	sr := &StreakRecord{
		days:      roaring.New(),
		updatedAt: time.Time{},
	}

	var buf bytes.Buffer
	require.NoError(t, writeStreakRecord(&buf, sr))

	got, err := readStreakRecord(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got.days.GetCardinality())
}

func TestReadStreakRecord_TruncatedData(t *testing.T) {
	// Only 4 bytes, not enough for updatedAt (8 bytes)
	_, err := readStreakRecord(bytes.NewReader([]byte{0, 0, 0, 0}))
	assert.Error(t, err)
}

func TestReadBitmap_TruncatedData(t *testing.T) {
	// Says 16 bytes of bitmap but provides none
	data := []byte{16, 0, 0, 0}
	_, err := readBitmap(bytes.NewReader(data))
	assert.Error(t, err)
}
