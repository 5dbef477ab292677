package core

import "math"

// SRGBToLinear decodes a gamma-encoded sRGB component to linear
func SRGBToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// LinearToSRGB encodes a linear component with the sRGB transfer function
func LinearToSRGB(c float64) float64 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

// SRGBToLinearSpectrum decodes all components of a gamma-encoded color
func SRGBToLinearSpectrum(s Spectrum) Spectrum {
	return Spectrum{SRGBToLinear(s[0]), SRGBToLinear(s[1]), SRGBToLinear(s[2])}
}

// LinearToSRGBSpectrum encodes all components of a linear color
func LinearToSRGBSpectrum(s Spectrum) Spectrum {
	return Spectrum{LinearToSRGB(s[0]), LinearToSRGB(s[1]), LinearToSRGB(s[2])}
}

// CIEXYZ is a tristimulus value in the CIE 1931 color space
type CIEXYZ struct {
	X, Y, Z float64
}

// LinearSRGBToCIEXYZ converts linear-sRGB to CIE XYZ (D65 white)
func LinearSRGBToCIEXYZ(s Spectrum) CIEXYZ {
	return CIEXYZ{
		X: 0.4124564*s[0] + 0.3575761*s[1] + 0.1804375*s[2],
		Y: 0.2126729*s[0] + 0.7151522*s[1] + 0.0721750*s[2],
		Z: 0.0193339*s[0] + 0.1191920*s[1] + 0.9503041*s[2],
	}
}

// CIEXYZToLinearSRGB converts CIE XYZ to linear-sRGB (D65 white)
func CIEXYZToLinearSRGB(c CIEXYZ) Spectrum {
	return Spectrum{
		3.2404542*c.X - 1.5371385*c.Y - 0.4985314*c.Z,
		-0.9692660*c.X + 1.8760108*c.Y + 0.0415560*c.Z,
		0.0556434*c.X - 0.2040259*c.Y + 1.0572252*c.Z,
	}
}

// SampledSPD is a spectral power distribution sampled on the shared wavelength
// grid (380 nm to 780 nm, 10 nm spacing)
type SampledSPD [numSpectralSamples]float64

const (
	spectralLambdaMin  = 380.0
	spectralLambdaStep = 10.0
	numSpectralSamples = 41
)

// SPDToCIEXYZ integrates an emitter SPD against the CIE 1931 2-degree color
// matching functions. The result is normalized so that Y = 1 for the input
// distribution itself.
func SPDToCIEXYZ(spd SampledSPD) CIEXYZ {
	var x, y, z float64
	for i := 0; i < numSpectralSamples; i++ {
		x += spd[i] * cieXBar[i]
		y += spd[i] * cieYBar[i]
		z += spd[i] * cieZBar[i]
	}
	if y == 0 {
		return CIEXYZ{}
	}
	k := 1.0 / y
	return CIEXYZ{X: x * k, Y: 1.0, Z: z * k}
}

// IlluminantD65 returns the CIE standard daylight illuminant D65 on the shared
// wavelength grid
func IlluminantD65() SampledSPD {
	return illuminantD65
}

// CIE 1931 2-degree standard observer, 380-780 nm at 10 nm
var cieXBar = SampledSPD{
	0.0014, 0.0042, 0.0143, 0.0435, 0.1344, 0.2839, 0.3483, 0.3362,
	0.2908, 0.1954, 0.0956, 0.0320, 0.0049, 0.0093, 0.0633, 0.1655,
	0.2904, 0.4334, 0.5945, 0.7621, 0.9163, 1.0263, 1.0622, 1.0026,
	0.8544, 0.6424, 0.4479, 0.2835, 0.1649, 0.0874, 0.0468, 0.0227,
	0.0114, 0.0058, 0.0029, 0.0014, 0.0007, 0.0003, 0.0002, 0.0001,
	0.0000,
}

var cieYBar = SampledSPD{
	0.0000, 0.0001, 0.0004, 0.0012, 0.0040, 0.0116, 0.0230, 0.0380,
	0.0600, 0.0910, 0.1390, 0.2080, 0.3230, 0.5030, 0.7100, 0.8620,
	0.9540, 0.9950, 0.9950, 0.9520, 0.8700, 0.7570, 0.6310, 0.5030,
	0.3810, 0.2650, 0.1750, 0.1070, 0.0610, 0.0320, 0.0170, 0.0082,
	0.0041, 0.0021, 0.0010, 0.0005, 0.0002, 0.0001, 0.0001, 0.0000,
	0.0000,
}

var cieZBar = SampledSPD{
	0.0065, 0.0201, 0.0679, 0.2074, 0.6456, 1.3856, 1.7471, 1.7721,
	1.6692, 1.2876, 0.8130, 0.4652, 0.2720, 0.1582, 0.0782, 0.0422,
	0.0203, 0.0087, 0.0039, 0.0021, 0.0017, 0.0011, 0.0008, 0.0003,
	0.0002, 0.0000, 0.0000, 0.0000, 0.0000, 0.0000, 0.0000, 0.0000,
	0.0000, 0.0000, 0.0000, 0.0000, 0.0000, 0.0000, 0.0000, 0.0000,
	0.0000,
}

// CIE standard illuminant D65 relative SPD, 380-780 nm at 10 nm
var illuminantD65 = SampledSPD{
	49.9755, 54.6482, 82.7549, 91.4860, 93.4318, 86.6823, 104.8650, 117.0080,
	117.8120, 114.8610, 115.9230, 108.8110, 109.3540, 107.8020, 104.7900, 107.6890,
	104.4050, 104.0460, 100.0000, 96.3342, 95.7880, 88.6856, 90.0062, 89.5991,
	87.6987, 83.2886, 83.6992, 80.0268, 80.2146, 82.2778, 78.2842, 69.7213,
	71.6091, 74.3490, 61.6040, 69.8856, 75.0870, 63.5927, 46.4182, 66.8054,
	63.3828,
}
