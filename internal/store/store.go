// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package store provides kv persistence for transMap filtering results.
package store

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"modernc.org/kv"

	"github.com/kortschak/tmfilter/transmap"
)

// ByTranscriptAlignment is a kv compare function, ordering by transcript ID
// and then alignment ID.
func ByTranscriptAlignment(x, y []byte) int {
	if bytes.Equal(x, y) {
		return 0
	}

	kx := UnmarshalResultKey(x)
	ky := UnmarshalResultKey(y)

	switch {
	case kx.TranscriptID < ky.TranscriptID:
		return -1
	case kx.TranscriptID > ky.TranscriptID:
		return 1
	}
	switch {
	case kx.AlignmentID < ky.AlignmentID:
		return -1
	case kx.AlignmentID > ky.AlignmentID:
		return 1
	}

	panic("unreachable")
}

// ResultKey is the key of a row of the results table.
type ResultKey struct {
	TranscriptID string
	AlignmentID  string
}

var order = binary.BigEndian

func MarshalResultKey(r transmap.Row) []byte {
	var (
		buf bytes.Buffer
		b   [8]byte
	)
	order.PutUint64(b[:], uint64(len(r.TranscriptID)))
	buf.Write(b[:])
	buf.WriteString(r.TranscriptID)
	order.PutUint64(b[:], uint64(len(r.AlignmentID)))
	buf.Write(b[:])
	buf.WriteString(r.AlignmentID)
	return buf.Bytes()
}

func UnmarshalResultKey(data []byte) ResultKey {
	var k ResultKey
	n64 := binary.Size(uint64(0))
	n := order.Uint64(data[:n64])
	data = data[n64:]
	k.TranscriptID = string(data[:n])
	data = data[n:]
	n = order.Uint64(data[:n64])
	data = data[n64:]
	k.AlignmentID = string(data[:n])
	return k
}

// MarshalCutoff returns the value encoding of a biotype cutoff. The
// biotype is the key and is not included.
func MarshalCutoff(c transmap.BiotypeCutoff) []byte {
	var b [9]byte
	if c.Fitted {
		b[0] = 1
	}
	order.PutUint64(b[1:], math.Float64bits(c.Cutoff))
	return b[:]
}

func UnmarshalCutoff(biotype, data []byte) (transmap.BiotypeCutoff, error) {
	if len(data) != 9 {
		return transmap.BiotypeCutoff{}, fmt.Errorf("store: invalid cutoff value length for %s: %d", biotype, len(data))
	}
	return transmap.BiotypeCutoff{
		Biotype: string(biotype),
		Fitted:  data[0] != 0,
		Cutoff:  math.Float64frombits(order.Uint64(data[1:])),
	}, nil
}

// WriteResults creates a kv database at path holding the rows of a
// results table keyed by transcript and alignment ID. Values are the
// JSON encoding of the rows.
func WriteResults(path string, rows []transmap.Row) error {
	return create(path, ByTranscriptAlignment, func(db *kv.DB) error {
		for _, r := range rows {
			v, err := json.Marshal(r)
			if err != nil {
				return err
			}
			err = db.Set(MarshalResultKey(r), v)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteCutoffs creates a kv database at path holding the biotype cutoffs
// keyed by biotype.
func WriteCutoffs(path string, cutoffs []transmap.BiotypeCutoff) error {
	return create(path, nil, func(db *kv.DB) error {
		for _, c := range cutoffs {
			err := db.Set([]byte(c.Biotype), MarshalCutoff(c))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func create(path string, cmp func(x, y []byte) int, fn func(*kv.DB) error) (err error) {
	db, err := kv.Create(path, &kv.Options{Compare: cmp})
	if err != nil {
		return err
	}
	defer func() {
		cerr := db.Close()
		if err == nil {
			err = cerr
		}
	}()
	err = db.BeginTransaction()
	if err != nil {
		return err
	}
	err = fn(db)
	if err != nil {
		db.Rollback()
		return err
	}
	return db.Commit()
}

// ReadResults returns the rows held in the results database at path.
func ReadResults(path string) ([]transmap.Row, error) {
	var rows []transmap.Row
	err := walk(path, ByTranscriptAlignment, func(_, v []byte) error {
		var r transmap.Row
		err := json.Unmarshal(v, &r)
		if err != nil {
			return err
		}
		rows = append(rows, r)
		return nil
	})
	return rows, err
}

// ReadCutoffs returns the biotype cutoffs held in the database at path.
func ReadCutoffs(path string) ([]transmap.BiotypeCutoff, error) {
	var cutoffs []transmap.BiotypeCutoff
	err := walk(path, nil, func(k, v []byte) error {
		c, err := UnmarshalCutoff(k, v)
		if err != nil {
			return err
		}
		cutoffs = append(cutoffs, c)
		return nil
	})
	return cutoffs, err
}

// walk calls fn on each key and value in the kv database at path in the
// order defined by cmp. If cmp is nil, bytes.Compare order is used.
func walk(path string, cmp func(x, y []byte) int, fn func(k, v []byte) error) error {
	db, err := kv.Open(path, &kv.Options{Compare: cmp})
	if err != nil {
		return err
	}
	defer db.Close()

	it, err := db.SeekFirst()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	for {
		k, v, err := it.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		err = fn(k, v)
		if err != nil {
			return err
		}
	}
}
