// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/scrubdex/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalDocumentRecord serializes a DocumentRecord to bytes.
// Field order: id, source id, name, format, state, error, segments,
// vectors, updated-at (unix micro).
func MarshalDocumentRecord(record *core.DocumentRecord) []byte {
	updated := record.UpdatedAt.UnixMicro()
	size := varint.Uint64.Size(uint64(record.Id)) +
		ord.String.Size(record.SourceID) +
		ord.String.Size(record.Name) +
		varint.Int.Size(int(record.Format)) +
		varint.Int.Size(int(record.State)) +
		ord.String.Size(record.Error) +
		varint.Int.Size(record.Segments) +
		varint.Int.Size(record.Vectors) +
		varint.Int64.Size(updated)

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(record.Id), buf)
	n += ord.String.Marshal(record.SourceID, buf[n:])
	n += ord.String.Marshal(record.Name, buf[n:])
	n += varint.Int.Marshal(int(record.Format), buf[n:])
	n += varint.Int.Marshal(int(record.State), buf[n:])
	n += ord.String.Marshal(record.Error, buf[n:])
	n += varint.Int.Marshal(record.Segments, buf[n:])
	n += varint.Int.Marshal(record.Vectors, buf[n:])
	varint.Int64.Marshal(updated, buf[n:])
	return buf
}

// UnmarshalDocumentRecord deserializes a DocumentRecord from bytes.
func UnmarshalDocumentRecord(data []byte) (*core.DocumentRecord, error) {
	var (
		record core.DocumentRecord
		r      = reader{data: data}
	)

	record.Id = core.ID(r.uint64())
	record.SourceID = r.string()
	record.Name = r.string()
	record.Format = core.Format(r.int())
	record.State = core.DocumentState(r.int())
	record.Error = r.string()
	record.Segments = r.int()
	record.Vectors = r.int()
	updated := r.int64()

	if r.err != nil {
		return nil, fmt.Errorf("%w: document record: %w", ErrSerializationFailed, r.err)
	}
	record.UpdatedAt = time.UnixMicro(updated).UTC()
	return &record, nil
}

// MarshalVector serializes a Vector as id, length, then raw float32 values.
func MarshalVector(vec *core.Vector) []byte {
	size := varint.Uint64.Size(uint64(vec.DocumentID)) + varint.Int.Size(len(vec.Values))
	for _, x := range vec.Values {
		size += raw.Float32.Size(x)
	}

	buf := make([]byte, size)
	n := varint.Uint64.Marshal(uint64(vec.DocumentID), buf)
	n += varint.Int.Marshal(len(vec.Values), buf[n:])
	for _, x := range vec.Values {
		n += raw.Float32.Marshal(x, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes a Vector from bytes.
func UnmarshalVector(data []byte) (*core.Vector, error) {
	r := reader{data: data}
	id := core.ID(r.uint64())
	length := r.int()
	if r.err == nil && (length < 0 || length*4 > len(r.data)-r.off) {
		return nil, fmt.Errorf("%w: vector length %d", ErrTruncatedData, length)
	}

	vec := &core.Vector{DocumentID: id}
	if r.err == nil && length > 0 {
		vec.Values = make([]float32, length)
		for i := range vec.Values {
			vec.Values[i] = r.float32()
		}
	}

	if r.err != nil {
		return nil, fmt.Errorf("%w: vector: %w", ErrSerializationFailed, r.err)
	}
	return vec, nil
}

// reader walks a buffer, remembering the first error so call sites can
// decode a record field by field and check once.
type reader struct {
	data []byte
	off  int
	err  error
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.data[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.data[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.data[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.data[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := raw.Float32.Unmarshal(r.data[r.off:])
	r.off += n
	r.err = err
	return v
}
