package media

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"
)

// PCMBuffer collects 16 bit little endian PCM audio in memory and can
// render it as a WAV file.
type PCMBuffer struct {
	sampleRate  uint32
	numChannels uint32

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewPCMBuffer creates an empty buffer.
func NewPCMBuffer(sampleRate, numChannels uint32) *PCMBuffer {
	return &PCMBuffer{
		sampleRate:  sampleRate,
		numChannels: numChannels,
	}
}

// Write appends raw PCM bytes.
func (b *PCMBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Len returns the number of PCM bytes collected.
func (b *PCMBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

// SampleRate returns the sample rate of the audio.
func (b *PCMBuffer) SampleRate() int {
	return int(b.sampleRate)
}

// WAV returns the collected audio prefixed with a WAV header.
func (b *PCMBuffer) WAV() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := new(bytes.Buffer)
	out.Grow(44 + b.buf.Len())
	if err := writeHeader(out, b.sampleRate, b.numChannels, uint32(b.buf.Len())); err != nil {
		return nil, err
	}
	out.Write(b.buf.Bytes())
	return out.Bytes(), nil
}

// writeHeader writes a 44 byte PCM WAV header for dataSize bytes of audio.
func writeHeader(w io.Writer, sampleRate, numChannels, dataSize uint32) error {
	// RIFF chunk
	if _, err := w.Write([]byte("RIFF")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, 36+dataSize); err != nil {
		return err
	}
	if _, err := w.Write([]byte("WAVE")); err != nil {
		return err
	}

	// "fmt " sub-chunk
	if _, err := w.Write([]byte("fmt ")); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(16)); err != nil { // Sub-chunk size (16 for PCM)
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(1)); err != nil { // Audio format (1 for PCM)
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(numChannels)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, sampleRate); err != nil {
		return err
	}
	byteRate := sampleRate * numChannels * 2 // SampleRate * NumChannels * BitsPerSample/8
	if err := binary.Write(w, binary.LittleEndian, byteRate); err != nil {
		return err
	}
	blockAlign := uint16(numChannels * 2)
	if err := binary.Write(w, binary.LittleEndian, blockAlign); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(16)); err != nil { // Bits per sample
		return err
	}

	// "data" sub-chunk
	if _, err := w.Write([]byte("data")); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, dataSize)
}
