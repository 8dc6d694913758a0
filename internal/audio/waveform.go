package audio

import (
	"errors"
	"math"
	"time"
)

// Waveform holds mono PCM samples at a fixed sample rate.
type Waveform struct {
	Samples    []float32
	SampleRate int
}

// NewWaveform wraps raw samples in a Waveform.
func NewWaveform(samples []float32, sampleRate int) (*Waveform, error) {
	if sampleRate <= 0 {
		return nil, errors.New("waveform: sample rate must be positive")
	}
	return &Waveform{Samples: samples, SampleRate: sampleRate}, nil
}

// Duration returns the waveform length as wall-clock time.
func (w *Waveform) Duration() time.Duration {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(w.Samples)) / float64(w.SampleRate) * float64(time.Second))
}

// Seconds returns the waveform length in seconds.
func (w *Waveform) Seconds() float64 {
	if w == nil || w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// RMS computes the root mean square amplitude of the samples.
func (w *Waveform) RMS() float64 {
	if w == nil || len(w.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, sample := range w.Samples {
		value := float64(sample)
		sum += value * value
	}
	return math.Sqrt(sum / float64(len(w.Samples)))
}

// NormalizeRMS scales the samples so their RMS amplitude matches the target
// loudness, expressed in decibels below full scale. Samples are clipped to
// [-1, 1] after scaling. Silent audio is returned unchanged.
func (w *Waveform) NormalizeRMS(targetDBFS float64) {
	if w == nil || len(w.Samples) == 0 {
		return
	}
	current := w.RMS()
	if current == 0 {
		return
	}
	target := math.Pow(10, targetDBFS/20)
	gain := target / current
	for i, sample := range w.Samples {
		scaled := float64(sample) * gain
		if scaled > 1 {
			scaled = 1
		} else if scaled < -1 {
			scaled = -1
		}
		w.Samples[i] = float32(scaled)
	}
}

// Split divides the waveform into consecutive windows of chunkSeconds each.
// The final window holds whatever remains and may be shorter. Windows share
// the underlying sample slice; order matches playback order.
func (w *Waveform) Split(chunkSeconds int) []*Waveform {
	if w == nil || len(w.Samples) == 0 {
		return nil
	}
	if chunkSeconds <= 0 {
		return []*Waveform{w}
	}
	window := chunkSeconds * w.SampleRate
	if window <= 0 || len(w.Samples) <= window {
		return []*Waveform{w}
	}
	chunks := make([]*Waveform, 0, (len(w.Samples)+window-1)/window)
	for start := 0; start < len(w.Samples); start += window {
		end := start + window
		if end > len(w.Samples) {
			end = len(w.Samples)
		}
		chunks = append(chunks, &Waveform{Samples: w.Samples[start:end], SampleRate: w.SampleRate})
	}
	return chunks
}
