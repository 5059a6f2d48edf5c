package models

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

var byteOrder = binary.LittleEndian

// writeBitmap writes a Roaring Bitmap as uint32 length + MarshalBinary bytes.
func writeBitmap(w io.Writer, bm *roaring.Bitmap) error {
	buf, err := bm.MarshalBinary()
	if err != nil {
		return err
	}
	if err := binary.Write(w, byteOrder, uint32(len(buf))); err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// readBitmap reads a Roaring Bitmap from uint32 length + binary data.
func readBitmap(r io.Reader) (*roaring.Bitmap, error) {
	var length uint32
	if err := binary.Read(r, byteOrder, &length); err != nil {
		return nil, err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("roaring unmarshal: %w", err)
	}
	return bm, nil
}

// writeStreakRecord writes a StreakRecord in binary format.
// Caller must hold sr.mu.
func writeStreakRecord(w io.Writer, sr *StreakRecord) error {
	// updatedAt as Unix nanoseconds
	if err := binary.Write(w, byteOrder, sr.updatedAt.UnixNano()); err != nil {
		return err
	}
	return writeBitmap(w, sr.days)
}

// readStreakRecord reads a StreakRecord from binary format.
func readStreakRecord(r io.Reader) (*StreakRecord, error) {
	var nanos int64
	if err := binary.Read(r, byteOrder, &nanos); err != nil {
		return nil, err
	}

	days, err := readBitmap(r)
	if err != nil {
		return nil, err
	}

	return &StreakRecord{
		days:      days,
		updatedAt: time.Unix(0, nanos),
	}, nil
}
