// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package devnet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/zmcNotafraid/godwoken/rollup/types"
)

// SnappySuffix marks input files compressed with snappy.
const SnappySuffix = ".sz"

// Encode produces the three input buffers of the validator.
func (t *Triple) Encode() (prev, block, post []byte, err error) {
	if prev, err = types.EncodeGlobalState(&t.Prev); err != nil {
		return nil, nil, nil, err
	}
	if block, err = types.EncodeBlock(t.Block); err != nil {
		return nil, nil, nil, err
	}
	if post, err = types.EncodeGlobalState(&t.Post); err != nil {
		return nil, nil, nil, err
	}
	return prev, block, post, nil
}

// TripleFiles names the files holding an encoded triple.
type TripleFiles struct {
	Prev, Block, Post string
}

// GetTripleFiles returns the file names used for the triple of the block
// with the given number in the given directory.
func GetTripleFiles(dir string, number uint64, compressed bool) TripleFiles {
	suffix := ""
	if compressed {
		suffix = SnappySuffix
	}
	name := func(kind string) string {
		return filepath.Join(dir, fmt.Sprintf("block-%06d-%s.bin%s", number, kind, suffix))
	}
	return TripleFiles{Prev: name("prev"), Block: name("block"), Post: name("post")}
}

// WriteTriple stores the encoded triple in the given directory, optionally
// compressing it with snappy.
func WriteTriple(dir string, triple *Triple, compressed bool) (TripleFiles, error) {
	files := GetTripleFiles(dir, triple.Block.Raw.Number, compressed)
	prev, block, post, err := triple.Encode()
	if err != nil {
		return files, err
	}
	return files, errors.Join(
		WriteInput(files.Prev, prev),
		WriteInput(files.Block, block),
		WriteInput(files.Post, post),
	)
}

// WriteInput writes an input buffer, compressing it if the file name
// carries the snappy suffix.
func WriteInput(path string, data []byte) error {
	if strings.HasSuffix(path, SnappySuffix) {
		data = snappy.Encode(nil, data)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadInput reads an input buffer written by WriteInput. Decompressed data
// exceeding maxSize bytes is rejected; a non-positive maxSize is unlimited.
func ReadInput(path string, maxSize int) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, SnappySuffix) {
		if maxSize > 0 && len(data) > maxSize {
			return nil, fmt.Errorf("%s: size of %d bytes exceeds limit of %d bytes", path, len(data), maxSize)
		}
		return data, nil
	}
	size, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if maxSize > 0 && size > maxSize {
		return nil, fmt.Errorf("%s: decompressed size of %d bytes exceeds limit of %d bytes", path, size, maxSize)
	}
	res, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
