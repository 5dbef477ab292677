package scene

import (
	"testing"

	"github.com/arvoss/go-pathtracer/pkg/core"
)

func TestInputPacket_TypedAccessors(t *testing.T) {
	packet := NewInputPacket(map[string]interface{}{
		"radius":   2.5,
		"position": core.NewVec3(1, 2, 3),
		"rotation": core.IdentityQuaternion(),
		"vertices": []core.Vec3{core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)},
		"name":     "lamp",
		"file":     Path("/assets/env.png"),
	})

	if got, err := packet.GetReal("radius", 0, Required); err != nil || got != 2.5 {
		t.Errorf("GetReal: got %f, err %v", got, err)
	}
	if got, err := packet.GetVec3("position", core.Vec3{}, Required); err != nil || !got.Equals(core.NewVec3(1, 2, 3)) {
		t.Errorf("GetVec3: got %v, err %v", got, err)
	}
	if _, err := packet.GetQuaternion("rotation", core.IdentityQuaternion(), Required); err != nil {
		t.Errorf("GetQuaternion: err %v", err)
	}
	if got, err := packet.GetVec3Array("vertices", nil, Required); err != nil || len(got) != 2 {
		t.Errorf("GetVec3Array: got %v, err %v", got, err)
	}
	if got, err := packet.GetString("name", "", Required); err != nil || got != "lamp" {
		t.Errorf("GetString: got %q, err %v", got, err)
	}
	if got, err := packet.GetPath("file", "", Required); err != nil || got != Path("/assets/env.png") {
		t.Errorf("GetPath: got %q, err %v", got, err)
	}
}

func TestInputPacket_MissingFields(t *testing.T) {
	packet := NewInputPacket(nil)

	// Optional returns the default with no error
	if got, err := packet.GetReal("radius", 1.5, Optional); err != nil || got != 1.5 {
		t.Errorf("Optional missing: got %f, err %v", got, err)
	}

	// Required signals the error and still hands back the default so the
	// caller can construct an inert object
	got, err := packet.GetReal("radius", 1.5, Required)
	if err == nil {
		t.Error("Required missing field did not error")
	}
	if got != 1.5 {
		t.Errorf("Required missing default: got %f", got)
	}
}

func TestInputPacket_TypeMismatch(t *testing.T) {
	packet := NewInputPacket(map[string]interface{}{"radius": "not-a-number"})
	if _, err := packet.GetReal("radius", 0, Required); err == nil {
		t.Error("type mismatch did not error")
	}

	// Strings are accepted where a path is asked for
	pathPacket := NewInputPacket(map[string]interface{}{"file": "relative/path.ply"})
	if got, err := pathPacket.GetPath("file", "", Required); err != nil || got != Path("relative/path.ply") {
		t.Errorf("string-as-path: got %q, err %v", got, err)
	}
}

func TestCornell_Cooks(t *testing.T) {
	box := BuildCornell(DefaultCornellOptions(64, 48))

	// 5 walls + lamp, two triangles each
	if got := len(box.Primitives()); got != 12 {
		t.Errorf("cornell primitives: got %d, want 12", got)
	}
	if len(box.Emitters()) != 1 {
		t.Errorf("cornell emitters: got %d, want 1", len(box.Emitters()))
	}
	if box.Camera() == nil {
		t.Fatal("cornell has no camera")
	}

	// A ray down the view axis reaches the back wall
	ray := core.NewRay(core.NewVec3(0, 0, 3.8), core.NewVec3(0, 0, -1))
	var detail core.HitDetail
	if !box.CalcIntersection(&ray, &detail) {
		t.Fatal("view axis ray misses the box")
	}
	if detail.Position.Z > -0.99 {
		t.Errorf("view axis hit at %v, want the back wall", detail.Position)
	}

	// The lamp primitive carries its emitter through metadata
	lampDetailFound := false
	up := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0))
	if box.CalcIntersection(&up, &detail) {
		if detail.Primitive.Metadata().Emitter != nil {
			lampDetailFound = true
		}
	}
	if !lampDetailFound {
		t.Error("upward ray does not reach the lamp emitter")
	}
}
