package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
)

// EncodeWAV writes the waveform as a 16-bit mono PCM WAV stream.
func EncodeWAV(w io.Writer, waveform *Waveform) error {
	if waveform == nil || waveform.SampleRate <= 0 {
		return errors.New("wav encode: empty waveform")
	}

	dataSize := uint32(len(waveform.Samples) * 2)
	sampleRate := uint32(waveform.SampleRate)
	byteRate := sampleRate * 2

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], 1) // mono
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], 2)  // block align
	binary.LittleEndian.PutUint16(header[34:36], 16) // bits per sample
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	buf := make([]byte, 0, len(waveform.Samples)*2)
	for _, sample := range waveform.Samples {
		value := float64(sample)
		if value > 1 {
			value = 1
		} else if value < -1 {
			value = -1
		}
		pcm := int16(math.Round(value * math.MaxInt16))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(pcm))
	}
	_, err := w.Write(buf)
	return err
}

// WriteWAVFile encodes the waveform to a WAV file at path.
func WriteWAVFile(path string, waveform *Waveform) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(file, waveform); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// DecodeF32LE interprets raw little-endian 32-bit float bytes as samples.
// Trailing bytes that do not form a whole sample are dropped.
func DecodeF32LE(data []byte) []float32 {
	count := len(data) / 4
	samples := make([]float32, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	return samples
}
