package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Spectrum is a one-sided amplitude spectrum. Freqs are in cycles per unit
// time.
type Spectrum struct {
	Freqs []float64 `json:"frequencies"`
	Power []float64 `json:"power"`
}

// PowerSpectrum returns the amplitude spectrum of a series sampled every dt.
// The mean is removed first so the zero-frequency bin does not dominate.
func PowerSpectrum(data []float64, dt float64) Spectrum {
	n := len(data)
	if n < 2 || dt <= 0 {
		return Spectrum{}
	}
	mean := stat.Mean(data, nil)
	centred := make([]float64, n)
	for i, v := range data {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centred)
	sp := Spectrum{
		Freqs: make([]float64, len(coeff)),
		Power: make([]float64, len(coeff)),
	}
	for i, c := range coeff {
		sp.Freqs[i] = fft.Freq(i) / dt
		sp.Power[i] = cmplx.Abs(c)
	}
	return sp
}

// Dominant returns the frequency of the strongest non-zero bin.
func (s Spectrum) Dominant() float64 {
	best, at := -1.0, 0.0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > best {
			best, at = s.Power[i], s.Freqs[i]
		}
	}
	return at
}
