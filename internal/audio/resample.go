package audio

// Resample linearly interpolates samples from fromRate to toRate. Every
// transcription backend in this daemon expects 16kHz mono. Capture does not
// call Resample or DownmixToMono: it opens its PortAudio stream at 16kHz
// with one channel and uses the samples as delivered.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(float64(len(samples)) * ratio)
	if outLen < 1 {
		return nil
	}

	out := make([]float32, outLen)
	step := float64(fromRate) / float64(toRate)
	for i := range out {
		srcPos := float64(i) * step
		idx := int(srcPos)
		frac := float32(srcPos - float64(idx))

		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// DownmixToMono averages interleaved multi-channel samples into mono.
func DownmixToMono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// Int32ToFloat32 converts PortAudio's 32-bit integer samples (only the top
// 16 bits of which are meaningful on most backends) to normalized floats.
func Int32ToFloat32(samples []int32) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s>>16) / 32768.0
	}
	return out
}
