package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Point cache errors.
var (
	ErrInvalidPointCacheMagic       = errors.New("invalid point cache magic: expected 'CPTC'")
	ErrUnsupportedPointCacheVersion = errors.New("unsupported point cache version")
	ErrTruncatedPointCacheData      = errors.New("truncated point cache data")
	ErrRaggedPointCache             = errors.New("point cache frames differ in length")
)

// PointCacheVersion is the only version written.
const PointCacheVersion uint16 = 1

var pointCacheMagic = [4]byte{'C', 'P', 'T', 'C'}

// PointCache is a baked animation: one posed point buffer (x, y, z per
// point) per integer frame starting at StartTime.
type PointCache struct {
	Animation string
	StartTime int32
	Frames    [][]float64
}

// Header layout (little endian):
//
//	magic      [4]byte "CPTC"
//	version    uint16
//	nameLen    uint16, name [nameLen]byte
//	startTime  int32
//	frameCount uint32
//	frameLen   uint32 (floats per frame)
//	payload    frameCount * frameLen float32

// WritePointCache encodes pc to w.
func WritePointCache(w io.Writer, pc *PointCache) error {
	frameLen := 0
	if len(pc.Frames) > 0 {
		frameLen = len(pc.Frames[0])
	}
	for i, f := range pc.Frames {
		if len(f) != frameLen {
			return fmt.Errorf("%w: frame %d has %d values, expected %d", ErrRaggedPointCache, i, len(f), frameLen)
		}
	}
	if len(pc.Animation) > math.MaxUint16 {
		return fmt.Errorf("animation name too long: %d bytes", len(pc.Animation))
	}

	bw := bufio.NewWriter(w)
	header := []any{
		pointCacheMagic,
		PointCacheVersion,
		uint16(len(pc.Animation)),
		[]byte(pc.Animation),
		pc.StartTime,
		uint32(len(pc.Frames)),
		uint32(frameLen),
	}
	for _, v := range header {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("writing point cache header: %w", err)
		}
	}

	buf := make([]byte, 4)
	for _, f := range pc.Frames {
		for _, v := range f {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(v)))
			if _, err := bw.Write(buf); err != nil {
				return fmt.Errorf("writing point cache payload: %w", err)
			}
		}
	}
	return bw.Flush()
}

// ParsePointCache decodes a point cache from raw bytes.
func ParsePointCache(data []byte) (*PointCache, error) {
	if len(data) < 8 {
		return nil, ErrTruncatedPointCacheData
	}
	if !bytes.Equal(data[:4], pointCacheMagic[:]) {
		return nil, ErrInvalidPointCacheMagic
	}

	r := bytes.NewReader(data[4:])

	var version, nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, ErrTruncatedPointCacheData
	}
	if version != PointCacheVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPointCacheVersion, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return nil, ErrTruncatedPointCacheData
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, ErrTruncatedPointCacheData
	}

	var startTime int32
	var frameCount, frameLen uint32
	for _, v := range []any{&startTime, &frameCount, &frameLen} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, ErrTruncatedPointCacheData
		}
	}

	if uint64(r.Len()) < uint64(frameCount)*uint64(frameLen)*4 {
		return nil, fmt.Errorf("%w: need %d frames of %d floats", ErrTruncatedPointCacheData, frameCount, frameLen)
	}

	pc := &PointCache{
		Animation: string(name),
		StartTime: startTime,
		Frames:    make([][]float64, frameCount),
	}
	buf := make([]byte, 4)
	for i := range pc.Frames {
		frame := make([]float64, frameLen)
		for j := range frame {
			// Length was checked above.
			_, _ = io.ReadFull(r, buf)
			frame[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
		}
		pc.Frames[i] = frame
	}
	return pc, nil
}

// ParsePointCacheFile reads and parses a point cache file.
func ParsePointCacheFile(path string) (*PointCache, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading point cache file: %w", err)
	}
	return ParsePointCache(data)
}
