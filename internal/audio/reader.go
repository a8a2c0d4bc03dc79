package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// WAV format tags from the fmt chunk.
const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
)

var (
	// ErrEmpty is returned when a file decodes to zero frames.
	ErrEmpty = errors.New("audio contains no samples")
	// ErrUnsupportedFormat is returned for containers or encodings we cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// Metadata describes the container and encoding of a decoded file.
type Metadata struct {
	Format     string // WAV, MP3, OGG
	Subtype    string // PCM_16, PCM_24, PCM_32, PCM_U8, FLOAT, DOUBLE, MP3, VORBIS
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Duration   float64 // seconds
}

// ReadFile decodes an audio file into a Buffer. WAV is the primary format;
// MP3 and Ogg Vorbis are decoded so that callers such as QC can still inspect
// the signal of a file in the wrong container.
func ReadFile(path string) (*Buffer, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var (
		buf  *Buffer
		meta *Metadata
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		buf, meta, err = decodeMP3(f)
	case ".ogg", ".oga":
		buf, meta, err = decodeOgg(f)
	default:
		buf, meta, err = decodeWAV(f)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if buf.Frames() == 0 {
		return nil, meta, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	meta.Frames = buf.Frames()
	meta.Duration = buf.Duration()
	return buf, meta, nil
}

// ReadWAV decodes a WAV file, rejecting any other container.
func ReadWAV(path string) (*Buffer, *Metadata, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".wav" {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	return ReadFile(path)
}

func decodeWAV(r io.ReadSeeker) (*Buffer, *Metadata, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, nil, fmt.Errorf("not a valid WAV file: %w", ErrUnsupportedFormat)
	}

	meta := &Metadata{
		Format:     "WAV",
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if meta.Channels == 0 {
		return nil, meta, fmt.Errorf("WAV declares zero channels: %w", ErrUnsupportedFormat)
	}

	format := int(dec.WavAudioFormat)
	if format == wavFormatExtensible {
		sub, err := extensibleSubFormat(r)
		if err != nil {
			return nil, meta, err
		}
		format = sub
	}
	if format == wavFormatFloat {
		meta.Subtype = floatSubtype(meta.BitDepth)
		buf, err := decodeWAVFloat(dec, meta)
		return buf, meta, err
	}
	if format != wavFormatPCM {
		return nil, meta, fmt.Errorf("WAV encoding %d: %w", format, ErrUnsupportedFormat)
	}
	meta.Subtype = pcmSubtype(meta.BitDepth)

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, meta, fmt.Errorf("failed to read PCM data: %w", err)
	}

	frames := len(pcm.Data) / meta.Channels
	buf := NewBuffer(meta.Channels, frames, meta.SampleRate)
	offset, scale := 0.0, math.Pow(2, float64(meta.BitDepth-1))
	if meta.BitDepth == 8 {
		offset, scale = 128, 128
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < meta.Channels; ch++ {
			buf.Samples[ch][i] = (float64(pcm.Data[i*meta.Channels+ch]) - offset) / scale
		}
	}
	return buf, meta, nil
}

// extensibleSubFormat reads the format code from the sub-format GUID of a
// WAVE_FORMAT_EXTENSIBLE fmt chunk. The decoder does not expose it, so the
// chunk list is walked directly and the reader is left where it was.
func extensibleSubFormat(r io.ReadSeeker) (int, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	defer r.Seek(pos, io.SeekStart)

	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return 0, err
	}
	var hdr [8]byte
	for {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return 0, fmt.Errorf("missing fmt chunk: %w", ErrUnsupportedFormat)
		}
		size := int64(binary.LittleEndian.Uint32(hdr[4:]))
		if string(hdr[:4]) != "fmt " {
			if _, err := r.Seek(size+size%2, io.SeekCurrent); err != nil {
				return 0, err
			}
			continue
		}
		if size < 40 {
			return 0, fmt.Errorf("extensible fmt chunk of %d bytes: %w", size, ErrUnsupportedFormat)
		}
		body := make([]byte, 40)
		if _, err := io.ReadFull(r, body); err != nil {
			return 0, fmt.Errorf("failed to read fmt chunk: %w", err)
		}
		// The GUID starts at byte 24; its first two bytes are the format tag.
		return int(binary.LittleEndian.Uint16(body[24:])), nil
	}
}

// decodeWAVFloat reads IEEE float sample data straight from the PCM chunk.
func decodeWAVFloat(dec *wav.Decoder, meta *Metadata) (*Buffer, error) {
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate data chunk: %w", err)
	}
	if dec.PCMChunk == nil {
		return nil, fmt.Errorf("missing data chunk: %w", ErrUnsupportedFormat)
	}

	width := meta.BitDepth / 8
	if width != 4 && width != 8 {
		return nil, fmt.Errorf("float WAV with %d-bit samples: %w", meta.BitDepth, ErrUnsupportedFormat)
	}
	raw := make([]byte, dec.PCMChunk.Size)
	n, err := io.ReadFull(dec.PCMChunk, raw)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read float data: %w", err)
	}
	raw = raw[:n]

	frames := len(raw) / (width * meta.Channels)
	buf := NewBuffer(meta.Channels, frames, meta.SampleRate)
	pos := 0
	for i := 0; i < frames; i++ {
		for ch := 0; ch < meta.Channels; ch++ {
			var v float64
			if width == 4 {
				v = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[pos:])))
			} else {
				v = math.Float64frombits(binary.LittleEndian.Uint64(raw[pos:]))
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
			}
			buf.Samples[ch][i] = v
			pos += width
		}
	}
	return buf, nil
}

func decodeMP3(r io.Reader) (*Buffer, *Metadata, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, nil, err
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, nil, err
	}

	// go-mp3 always yields 16-bit little-endian stereo.
	frames := len(raw) / 4
	buf := NewBuffer(2, frames, dec.SampleRate())
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(raw[i*4:]))
		r := int16(binary.LittleEndian.Uint16(raw[i*4+2:]))
		buf.Samples[0][i] = float64(l) / 32768
		buf.Samples[1][i] = float64(r) / 32768
	}
	meta := &Metadata{
		Format:     "MP3",
		Subtype:    "MP3",
		SampleRate: dec.SampleRate(),
		Channels:   2,
		BitDepth:   16,
	}
	return buf, meta, nil
}

func decodeOgg(r io.Reader) (*Buffer, *Metadata, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	if format.Channels == 0 {
		return nil, nil, fmt.Errorf("ogg stream declares zero channels: %w", ErrUnsupportedFormat)
	}

	frames := len(data) / format.Channels
	buf := NewBuffer(format.Channels, frames, format.SampleRate)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < format.Channels; ch++ {
			buf.Samples[ch][i] = float64(data[i*format.Channels+ch])
		}
	}
	meta := &Metadata{
		Format:     "OGG",
		Subtype:    "VORBIS",
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
	}
	return buf, meta, nil
}

func pcmSubtype(bitDepth int) string {
	if bitDepth == 8 {
		return "PCM_U8"
	}
	return fmt.Sprintf("PCM_%d", bitDepth)
}

func floatSubtype(bitDepth int) string {
	if bitDepth == 64 {
		return "DOUBLE"
	}
	return "FLOAT"
}
