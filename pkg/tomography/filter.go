package tomography

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"

	"penumbra/internal/models"
)

// Filter is the frequency domain filter applied to every projection before
// it is backprojected
type Filter int

const (
	RampFilter Filter = iota
	SheppLoganFilter
	CosineFilter
	HammingFilter
	HannFilter
	NoFilter
)

var filterNames = map[Filter]string{
	RampFilter:       "ramp",
	SheppLoganFilter: "shepp-logan",
	CosineFilter:     "cosine",
	HammingFilter:    "hamming",
	HannFilter:       "hann",
	NoFilter:         "none",
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// FilterByName resolves a filter from its configuration name
func FilterByName(name string) (Filter, error) {
	name = strings.ToLower(name)
	if name == "" {
		return RampFilter, nil
	}
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("no reconstruction filter named %q: %w", name, models.ErrConfig)
}

// paddedSize returns the projection length used for filtering: at least 64
// and the next power of two at or above twice the projection height
func paddedSize(height int) int {
	size := 64
	for size < 2*height {
		size *= 2
	}
	return size
}

// response builds the filter response for the first size/2+1 frequencies of
// a real FFT of the given size. The ramp is built in the spatial domain and
// transformed, which avoids the zero-frequency bias of a plain |f| ramp.
func (f Filter) response(size int) []float64 {
	if f == NoFilter {
		resp := make([]float64, size/2+1)
		for i := range resp {
			resp[i] = 1
		}
		return resp
	}

	spatial := make([]float64, size)
	spatial[0] = 0.25
	for i := 1; i < size; i += 2 {
		n := i
		if i > size/2 {
			n = size - i
		}
		spatial[i] = -1 / (math.Pi * float64(n) * math.Pi * float64(n))
	}

	fft := fourier.NewFFT(size)
	coeff := fft.Coefficients(nil, spatial)
	resp := make([]float64, len(coeff))
	for k, c := range coeff {
		resp[k] = 2 * real(c)
	}

	// window values at frequency index k, taken from the fft-shifted windows
	shifted := func(k int) int { return (k + size/2) % size }
	for k := range resp {
		switch f {
		case SheppLoganFilter:
			if k > 0 {
				omega := math.Pi * float64(k) / float64(size)
				resp[k] *= math.Sin(omega) / omega
			}
		case CosineFilter:
			resp[k] *= math.Sin(math.Pi * float64(shifted(k)) / float64(size))
		case HammingFilter:
			resp[k] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(shifted(k))/float64(size-1))
		case HannFilter:
			resp[k] *= 0.5 - 0.5*math.Cos(2*math.Pi*float64(shifted(k))/float64(size-1))
		}
	}
	return resp
}

// filterProjections applies f to every column of sino and returns the
// filtered sinogram with the original shape
func filterProjections(sino models.Grid, f Filter) models.Grid {
	out := models.NewGrid(sino.Width, sino.Height)
	size := paddedSize(sino.Height)
	resp := f.response(size)
	fft := fourier.NewFFT(size)

	padded := make([]float64, size)
	coeff := make([]complex128, size/2+1)
	filtered := make([]float64, size)
	for a := 0; a < sino.Width; a++ {
		for i := range padded {
			padded[i] = 0
		}
		for r := 0; r < sino.Height; r++ {
			padded[r] = sino.At(a, r)
		}

		fft.Coefficients(coeff, padded)
		for k := range coeff {
			coeff[k] *= complex(resp[k], 0)
		}
		fft.Sequence(filtered, coeff)

		// gonum leaves the inverse transform unnormalised
		for r := 0; r < sino.Height; r++ {
			out.Data[r*out.Width+a] = filtered[r] / float64(size)
		}
	}
	return out
}
