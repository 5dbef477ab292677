package loaders

import (
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/arvoss/go-pathtracer/pkg/core"
	"github.com/arvoss/go-pathtracer/pkg/texture"
)

// LoadTextureImage decodes an LDR picture (PNG, JPEG, TIFF, BMP) into a
// linear-space image texture. Rows are flipped so texel (0, 0) lands at the
// lower-left corner, and the sRGB transfer curve is removed.
func LoadTextureImage(path string) (*texture.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "texture open %q", path)
	}
	defer file.Close()

	decoded, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "texture decode %q", path)
	}

	bounds := decoded.Bounds()
	widthPx := bounds.Dx()
	heightPx := bounds.Dy()
	texels := make([]core.Spectrum, widthPx*heightPx)

	for y := 0; y < heightPx; y++ {
		for x := 0; x < widthPx; x++ {
			r, g, b, _ := decoded.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			encoded := core.NewSpectrum(
				float64(r)/65535.0,
				float64(g)/65535.0,
				float64(b)/65535.0,
			)
			// Image row 0 is the top row; flip into frame orientation
			texels[(heightPx-1-y)*widthPx+x] = core.SRGBToLinearSpectrum(encoded)
		}
	}

	return texture.NewImage(widthPx, heightPx, texels), nil
}
