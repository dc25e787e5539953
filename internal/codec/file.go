package codec

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cory-johannsen/worldforge/internal/schema"
	"github.com/cory-johannsen/worldforge/internal/strpool"
)

// headerSize is the fixed client file header length: four little-endian
// uint32 words holding record count, field count, record size, and string
// block size. The format carries no magic number and no version word; the
// consuming reader trusts the layout blindly.
const headerSize = 16

// ErrMalformedFile reports a client file whose header or byte length is
// internally inconsistent, or disagrees with the type it is decoded
// against.
var ErrMalformedFile = errors.New("malformed record file")

// EncodeFile serializes records into a complete client file: header, then
// the fixed-width record block, then the string block. Records are written
// in slice order and string offsets are assigned in first-intern order, so
// equal inputs always produce byte-identical files.
//
// Precondition:  rt is a binary-storage type and every record's Type is
//                rt. pool may already hold entries, e.g. loaded from an
//                existing file; their offsets are preserved.
func EncodeFile(rt *schema.RecordType, records []*Record, pool *strpool.Pool) ([]byte, error) {
	if rt.Storage != schema.StorageBinary {
		return nil, fmt.Errorf("codec: record type %q has %q storage, want %q",
			rt.Name, rt.Storage, schema.StorageBinary)
	}
	rows := make([]byte, 0, len(records)*rt.RowSize())
	for i, rec := range records {
		if rec.Type != rt {
			return nil, fmt.Errorf("codec: record %d is a %q, file holds %q", i, rec.Type.Name, rt.Name)
		}
		row, err := Encode(rec, pool)
		if err != nil {
			return nil, fmt.Errorf("codec: record %d: %w", i, err)
		}
		rows = append(rows, row...)
	}
	block := pool.Serialize()

	out := make([]byte, 0, headerSize+len(rows)+len(block))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(records)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(rt.Fields)))
	out = binary.LittleEndian.AppendUint32(out, uint32(rt.RowSize()))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(block)))
	out = append(out, rows...)
	out = append(out, block...)
	return out, nil
}

// DecodeFile parses a complete client file against rt. It returns the
// decoded records and the file's string pool; re-encoding the returned
// records with the returned pool reproduces data byte-for-byte.
//
// Postcondition: len(records) equals the header's record count.
func DecodeFile(data []byte, rt *schema.RecordType) ([]*Record, *strpool.Pool, error) {
	if len(data) < headerSize {
		return nil, nil, fmt.Errorf("codec: file is %d byte(s), header needs %d: %w",
			len(data), headerSize, ErrMalformedFile)
	}
	recordCount := int(binary.LittleEndian.Uint32(data[0:4]))
	fieldCount := int(binary.LittleEndian.Uint32(data[4:8]))
	recordSize := int(binary.LittleEndian.Uint32(data[8:12]))
	blockSize := int(binary.LittleEndian.Uint32(data[12:16]))

	if fieldCount != len(rt.Fields) {
		return nil, nil, fmt.Errorf("codec: file declares %d field(s), type %q has %d: %w",
			fieldCount, rt.Name, len(rt.Fields), ErrMalformedFile)
	}
	if recordSize != rt.RowSize() {
		return nil, nil, fmt.Errorf("codec: file declares %d-byte records, type %q declares %d: %w",
			recordSize, rt.Name, rt.RowSize(), ErrSizeMismatch)
	}
	if want := headerSize + recordCount*recordSize + blockSize; len(data) != want {
		return nil, nil, fmt.Errorf("codec: file is %d byte(s), header describes %d: %w",
			len(data), want, ErrMalformedFile)
	}

	blockStart := headerSize + recordCount*recordSize
	pool, err := strpool.Load(data[blockStart:])
	if err != nil {
		return nil, nil, fmt.Errorf("codec: string block: %w", err)
	}

	records := make([]*Record, 0, recordCount)
	for i := 0; i < recordCount; i++ {
		start := headerSize + i*recordSize
		rec, err := Decode(data[start:start+recordSize], rt, pool)
		if err != nil {
			return nil, nil, fmt.Errorf("codec: record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, pool, nil
}
