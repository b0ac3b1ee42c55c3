// Package ocf implements encoding and decoding of Avro Object Container
// Files as defined by the Avro specification:
// https://avro.apache.org/docs/current/specification/#object-container-files
package ocf

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/brisktype/avro"
	"github.com/brisktype/avro/internal/bytesx"
)

const (
	schemaKey = "avro.schema"
	codecKey  = "avro.codec"
)

var magicBytes = [4]byte{'O', 'b', 'j', 1}

// Header represents an Avro container file header.
type Header struct {
	Magic [4]byte
	Meta  map[string][]byte
	Sync  [16]byte
}

func readHeader(r *avro.Reader) (Header, error) {
	var h Header
	magic := r.ReadFixed(4)
	copy(h.Magic[:], magic)
	if r.Error != nil {
		return h, r.Error
	}
	if h.Magic != magicBytes {
		return h, errors.New("avro: not an object container file")
	}

	h.Meta = map[string][]byte{}
	for {
		count, _ := r.ReadBlockHeader()
		if r.Error != nil {
			return h, r.Error
		}
		if count == 0 {
			break
		}
		for i := int64(0); i < count; i++ {
			k := r.ReadString()
			v := r.ReadBytes()
			if r.Error != nil {
				return h, r.Error
			}
			h.Meta[k] = v
		}
	}

	sync := r.ReadFixed(16)
	if r.Error != nil {
		return h, r.Error
	}
	copy(h.Sync[:], sync)
	return h, nil
}

func writeHeader(w *avro.Writer, h Header) {
	w.WriteFixed(h.Magic[:])
	if len(h.Meta) > 0 {
		w.WriteBlockHeader(int64(len(h.Meta)), 0, false)
		for k, v := range h.Meta {
			w.WriteString(k)
			w.WriteBytes(v)
		}
	}
	w.WriteBlockHeader(0, 0, false)
	w.WriteFixed(h.Sync[:])
}

// Decoder reads and decodes Avro values from a container file.
type Decoder struct {
	reader      *avro.Reader
	resetReader *bytesx.ResetReader
	decoder     *avro.Decoder
	meta        map[string][]byte
	sync        [16]byte

	codec Codec

	count int64
}

// NewDecoder returns a Decoder that reads container-file-framed values
// from r.
func NewDecoder(r io.Reader) (*Decoder, error) {
	reader := avro.NewReader(r, 1024)

	h, err := readHeader(reader)
	if err != nil {
		return nil, fmt.Errorf("avro: read header: %w", err)
	}

	schema, err := avro.Parse(string(h.Meta[schemaKey]))
	if err != nil {
		return nil, err
	}

	codec, err := resolveCodec(CodecName(h.Meta[codecKey]), codecOptions{})
	if err != nil {
		return nil, err
	}

	decReader := bytesx.NewResetReader([]byte{})

	return &Decoder{
		reader:      reader,
		resetReader: decReader,
		decoder:     avro.NewDecoder(schema, decReader),
		meta:        h.Meta,
		sync:        h.Sync,
		codec:       codec,
	}, nil
}

// Metadata returns the header metadata.
func (d *Decoder) Metadata() map[string][]byte {
	return d.meta
}

// HasNext reports whether another value can be read. Blocks holding zero
// values are read past rather than ending the iteration.
func (d *Decoder) HasNext() bool {
	for d.count <= 0 && d.reader.Error == nil {
		d.count = d.readBlock()
	}
	if d.reader.Error != nil {
		return false
	}
	return d.count > 0
}

// Decode reads the next value. Call HasNext first.
func (d *Decoder) Decode() (any, error) {
	if d.count <= 0 {
		return nil, errors.New("avro: decoder: no data found, call HasNext first")
	}
	d.count--
	return d.decoder.Decode()
}

// Error returns the last reader error, treating io.EOF as no error.
func (d *Decoder) Error() error {
	if errors.Is(d.reader.Error, io.EOF) {
		return nil
	}
	return d.reader.Error
}

func (d *Decoder) readBlock() int64 {
	count := d.reader.ReadLong()
	size := d.reader.ReadLong()

	if count > 0 {
		data := make([]byte, size)
		d.reader.Read(data)

		data, err := d.codec.Decode(data)
		if err != nil {
			d.reader.Error = err
			return count
		}
		d.resetReader.Reset(data)
	}

	sync := d.reader.ReadFixed(16)
	var syncArr [16]byte
	copy(syncArr[:], sync)
	if d.reader.Error == nil && d.sync != syncArr {
		d.reader.Error = &avro.SyncMismatchError{}
	}

	return count
}

type encoderConfig struct {
	BlockLength      int
	CodecName        CodecName
	CodecCompression int
	Metadata         map[string][]byte
}

// EncoderFunc configures an Encoder.
type EncoderFunc func(cfg *encoderConfig)

// WithBlockLength sets the number of values buffered per block.
func WithBlockLength(length int) EncoderFunc {
	return func(cfg *encoderConfig) { cfg.BlockLength = length }
}

// WithCodec sets the block compression codec.
func WithCodec(codec CodecName) EncoderFunc {
	return func(cfg *encoderConfig) { cfg.CodecName = codec }
}

// WithCompressionLevel sets the codec to deflate at the given level.
func WithCompressionLevel(compLvl int) EncoderFunc {
	return func(cfg *encoderConfig) {
		cfg.CodecName = Deflate
		cfg.CodecCompression = compLvl
	}
}

// WithMetadata attaches extra header metadata.
func WithMetadata(meta map[string][]byte) EncoderFunc {
	return func(cfg *encoderConfig) { cfg.Metadata = meta }
}

// Encoder writes an Avro container file to an output stream.
type Encoder struct {
	writer  *avro.Writer
	buf     *bytes.Buffer
	encoder *avro.Encoder
	sync    [16]byte

	codec Codec

	blockLength int
	count       int
}

// NewEncoder returns an Encoder writing a container file with schema s to w.
func NewEncoder(s string, w io.Writer, opts ...EncoderFunc) (*Encoder, error) {
	schema, err := avro.Parse(s)
	if err != nil {
		return nil, err
	}

	cfg := encoderConfig{
		BlockLength:      100,
		CodecName:        Null,
		CodecCompression: -1,
		Metadata:         map[string][]byte{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	writer := avro.NewWriter(w, 512)

	cfg.Metadata[schemaKey] = []byte(schema.String())
	cfg.Metadata[codecKey] = []byte(cfg.CodecName)
	header := Header{Magic: magicBytes, Meta: cfg.Metadata}
	_, _ = rand.Read(header.Sync[:])
	writeHeader(writer, header)

	codec, err := resolveCodec(cfg.CodecName, codecOptions{DeflateCompressionLevel: cfg.CodecCompression})
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}

	return &Encoder{
		writer:      writer,
		buf:         buf,
		encoder:     avro.NewEncoder(schema, buf),
		sync:        header.Sync,
		codec:       codec,
		blockLength: cfg.BlockLength,
	}, nil
}

// Encode writes the Avro encoding of v to the stream.
func (e *Encoder) Encode(v any) error {
	if err := e.encoder.Encode(v); err != nil {
		return err
	}

	e.count++
	if e.count >= e.blockLength {
		if err := e.writeBlock(); err != nil {
			return err
		}
	}
	return e.writer.Error
}

// Flush writes any buffered values as a final block, then flushes the
// underlying writer. Safe to call with no buffered values, so the header
// reaches the stream even for a zero-record file.
func (e *Encoder) Flush() error {
	if e.count > 0 {
		if err := e.writeBlock(); err != nil {
			return err
		}
		return e.writer.Error
	}
	return e.writer.Flush()
}

// Close flushes the encoder.
func (e *Encoder) Close() error {
	return e.Flush()
}

func (e *Encoder) writeBlock() error {
	e.writer.WriteLong(int64(e.count))

	b := e.codec.Encode(e.buf.Bytes())

	e.writer.WriteLong(int64(len(b)))
	_, _ = e.writer.Write(b)
	_, _ = e.writer.Write(e.sync[:])

	e.count = 0
	e.buf.Reset()
	return e.writer.Flush()
}
