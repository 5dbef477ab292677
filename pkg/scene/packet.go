package scene

import (
	"github.com/pkg/errors"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

// DataTreatment marks whether a packet field is required
type DataTreatment int

const (
	// Required fields signal an error when missing
	Required DataTreatment = iota
	// Optional fields fall back to the accessor's default
	Optional
)

// InputPacket is a read-only {name -> value} mapping. Typed accessors return
// the supplied default for missing Optional fields; for missing Required ones
// they return the default together with an error, so a caller can still
// construct the object in an inert state.
type InputPacket struct {
	values map[string]interface{}
}

// NewInputPacket creates a packet over the given values
func NewInputPacket(values map[string]interface{}) *InputPacket {
	if values == nil {
		values = map[string]interface{}{}
	}
	return &InputPacket{values: values}
}

// Has reports whether a field is present
func (p *InputPacket) Has(name string) bool {
	_, ok := p.values[name]
	return ok
}

// GetReal reads a float64 field
func (p *InputPacket) GetReal(name string, def float64, treatment DataTreatment) (float64, error) {
	raw, ok := p.values[name]
	if !ok {
		return def, missing(name, treatment)
	}
	value, ok := raw.(float64)
	if !ok {
		return def, errors.Errorf("packet field %q is not a real", name)
	}
	return value, nil
}

// GetVec3 reads a Vec3 field
func (p *InputPacket) GetVec3(name string, def core.Vec3, treatment DataTreatment) (core.Vec3, error) {
	raw, ok := p.values[name]
	if !ok {
		return def, missing(name, treatment)
	}
	value, ok := raw.(core.Vec3)
	if !ok {
		return def, errors.Errorf("packet field %q is not a vector3", name)
	}
	return value, nil
}

// GetQuaternion reads a Quaternion field
func (p *InputPacket) GetQuaternion(name string, def core.Quaternion, treatment DataTreatment) (core.Quaternion, error) {
	raw, ok := p.values[name]
	if !ok {
		return def, missing(name, treatment)
	}
	value, ok := raw.(core.Quaternion)
	if !ok {
		return def, errors.Errorf("packet field %q is not a quaternion", name)
	}
	return value, nil
}

// GetVec3Array reads a []Vec3 field
func (p *InputPacket) GetVec3Array(name string, def []core.Vec3, treatment DataTreatment) ([]core.Vec3, error) {
	raw, ok := p.values[name]
	if !ok {
		return def, missing(name, treatment)
	}
	value, ok := raw.([]core.Vec3)
	if !ok {
		return def, errors.Errorf("packet field %q is not a vector3 array", name)
	}
	return value, nil
}

// GetString reads a string field
func (p *InputPacket) GetString(name string, def string, treatment DataTreatment) (string, error) {
	raw, ok := p.values[name]
	if !ok {
		return def, missing(name, treatment)
	}
	value, ok := raw.(string)
	if !ok {
		return def, errors.Errorf("packet field %q is not a string", name)
	}
	return value, nil
}

// Path is a filesystem path carried by a packet
type Path string

// GetPath reads a path field
func (p *InputPacket) GetPath(name string, def Path, treatment DataTreatment) (Path, error) {
	raw, ok := p.values[name]
	if !ok {
		return def, missing(name, treatment)
	}
	value, ok := raw.(Path)
	if !ok {
		if str, isStr := raw.(string); isStr {
			return Path(str), nil
		}
		return def, errors.Errorf("packet field %q is not a path", name)
	}
	return value, nil
}

func missing(name string, treatment DataTreatment) error {
	if treatment == Optional {
		return nil
	}
	return errors.Errorf("packet field %q is required but missing", name)
}
