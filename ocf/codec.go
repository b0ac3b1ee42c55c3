package ocf

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"github.com/brisktype/avro"
	"github.com/dsnet/compress/bzip2"
	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
)

// CodecName identifies a container file block compression codec.
type CodecName string

// Supported compression codecs.
const (
	Null      CodecName = "null"
	Deflate   CodecName = "deflate"
	Bzip2     CodecName = "bzip2"
	Snappy    CodecName = "snappy"
	ZStandard CodecName = "zstandard"
)

type codecOptions struct {
	DeflateCompressionLevel int
	Bzip2CompressionLevel   int
	ZStandardOptions        zstdOptions
}

type zstdOptions struct {
	EOptions []zstd.EOption
	DOptions []zstd.DOption
}

// codecFactory builds a Codec for a configured set of options. Registering
// one here is the only step needed to make a new compression codec
// available to NewEncoder/NewDecoder.
type codecFactory func(codecOptions) (Codec, error)

var codecRegistry = map[CodecName]codecFactory{
	Null: func(codecOptions) (Codec, error) {
		return &NullCodec{}, nil
	},
	Deflate: func(opts codecOptions) (Codec, error) {
		return &DeflateCodec{compLvl: opts.DeflateCompressionLevel}, nil
	},
	Bzip2: func(opts codecOptions) (Codec, error) {
		return newBzip2Codec(opts.Bzip2CompressionLevel), nil
	},
	Snappy: func(codecOptions) (Codec, error) {
		return &SnappyCodec{}, nil
	},
	ZStandard: func(opts codecOptions) (Codec, error) {
		return newZStandardCodec(opts.ZStandardOptions), nil
	},
}

// RegisterCodec adds or replaces the factory used to build name's Codec.
func RegisterCodec(name CodecName, factory func(codecOptions) (Codec, error)) {
	codecRegistry[name] = factory
}

func resolveCodec(name CodecName, codecOpts codecOptions) (Codec, error) {
	if name == "" {
		name = Null
	}
	factory, ok := codecRegistry[name]
	if !ok {
		return nil, &avro.UnknownCodecError{Name: string(name)}
	}
	return factory(codecOpts)
}

// Codec compresses and decompresses a container file block's raw bytes.
type Codec interface {
	// Decode decompresses the given bytes.
	Decode([]byte) ([]byte, error)
	// Encode compresses the given bytes.
	Encode([]byte) []byte
}

// NullCodec performs no compression.
type NullCodec struct{}

// Decode returns b unchanged.
func (*NullCodec) Decode(b []byte) ([]byte, error) { return b, nil }

// Encode returns b unchanged.
func (*NullCodec) Encode(b []byte) []byte { return b }

// DeflateCodec compresses blocks with DEFLATE.
type DeflateCodec struct {
	compLvl int
}

// Decode decompresses b.
func (c *DeflateCodec) Decode(b []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(b))
	data, err := io.ReadAll(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return data, r.Close()
}

// Encode compresses b.
func (c *DeflateCodec) Encode(b []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(b)))
	w, _ := flate.NewWriter(buf, c.compLvl)
	_, _ = w.Write(b)
	_ = w.Close()
	return buf.Bytes()
}

// Bzip2Codec compresses blocks with bzip2, one of the two compression
// codecs the Avro specification requires every implementation to support
// (the standard library's compress/bzip2 is decode-only, so this is built
// on github.com/dsnet/compress/bzip2 instead).
type Bzip2Codec struct {
	level int
}

func newBzip2Codec(level int) *Bzip2Codec {
	if level == 0 {
		level = bzip2.DefaultCompression
	}
	return &Bzip2Codec{level: level}
}

// Decode decompresses b.
func (c *Bzip2Codec) Decode(b []byte) ([]byte, error) {
	r, err := bzip2.NewReader(bytes.NewReader(b), nil)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	return data, r.Close()
}

// Encode compresses b.
func (c *Bzip2Codec) Encode(b []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, 0, len(b)))
	w, err := bzip2.NewWriter(buf, &bzip2.WriterConfig{Level: c.level})
	if err != nil {
		return b
	}
	_, _ = w.Write(b)
	_ = w.Close()
	return buf.Bytes()
}

// SnappyCodec compresses blocks with Snappy, framed with a trailing
// big-endian CRC-32 checksum of the uncompressed data as the Avro
// specification requires.
type SnappyCodec struct{}

// Decode decompresses b, validating its trailing checksum.
func (*SnappyCodec) Decode(b []byte) ([]byte, error) {
	if len(b) < 5 {
		return nil, errors.New("avro: block too short for snappy checksum")
	}
	dst, err := snappy.Decode(nil, b[:len(b)-4])
	if err != nil {
		return nil, err
	}
	crc := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.ChecksumIEEE(dst) != crc {
		return nil, errors.New("avro: snappy checksum mismatch")
	}
	return dst, nil
}

// Encode compresses b, appending its trailing checksum.
func (*SnappyCodec) Encode(b []byte) []byte {
	dst := snappy.Encode(nil, b)
	dst = append(dst, 0, 0, 0, 0)
	binary.BigEndian.PutUint32(dst[len(dst)-4:], crc32.ChecksumIEEE(b))
	return dst
}

// ZStandardCodec compresses blocks with Zstandard.
type ZStandardCodec struct {
	decoder *zstd.Decoder
	encoder *zstd.Encoder
}

func newZStandardCodec(opts zstdOptions) *ZStandardCodec {
	decoder, _ := zstd.NewReader(nil, opts.DOptions...)
	encoder, _ := zstd.NewWriter(nil, opts.EOptions...)
	return &ZStandardCodec{decoder: decoder, encoder: encoder}
}

// Decode decompresses b.
func (z *ZStandardCodec) Decode(b []byte) ([]byte, error) {
	defer func() { _ = z.decoder.Reset(nil) }()
	return z.decoder.DecodeAll(b, nil)
}

// Encode compresses b.
func (z *ZStandardCodec) Encode(b []byte) []byte {
	defer z.encoder.Reset(nil)
	return z.encoder.EncodeAll(b, nil)
}
