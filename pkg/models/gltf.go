package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"

	"github.com/idanbeck/cs-cli/pkg/math3d"
)

// Default vertex color applied when a primitive carries no COLOR_0 and its
// material has no base color factor.
const (
	defaultR = 200
	defaultG = 200
	defaultB = 200
)

// LoadGLB loads a binary GLTF (.glb) file into a Mesh, generating smooth
// normals when the file carries none.
func LoadGLB(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, gm := range doc.Meshes {
		if err := appendGLTFMesh(doc, gm, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", gm.Name, err)
		}
	}

	if !mesh.HasNormals() {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// LoadGLBWithTexture loads a GLB file and returns the mesh plus the first
// embedded texture image, or nil if none is embedded.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := LoadGLB(path)
	if err != nil {
		return nil, nil, err
	}

	for _, img := range doc.Images {
		data := imageData(doc, img, path)
		if len(data) == 0 {
			continue
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err == nil {
			return mesh, decoded, nil
		}
	}
	return mesh, nil, nil
}

// imageData returns the raw bytes of a GLTF image, from the embedded buffer
// or from a file next to the document.
func imageData(doc *gltf.Document, img *gltf.Image, docPath string) []byte {
	if img.BufferView != nil {
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		if buf.Data != nil {
			return buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
		}
		return nil
	}
	if img.URI != "" {
		data, err := os.ReadFile(filepath.Join(filepath.Dir(docPath), img.URI))
		if err == nil {
			return data
		}
	}
	return nil
}

// appendGLTFMesh extracts all triangle primitives of one GLTF mesh.
func appendGLTFMesh(doc *gltf.Document, gm *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = readVec3Accessor(doc, normIdx); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = readVec2Accessor(doc, uvIdx); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		cr, cg, cb := primitiveColor(doc, prim)

		base := uint32(mesh.VertexCount())
		for i, p := range positions {
			n := math3d.Zero3()
			if i < len(normals) {
				n = normals[i]
			}
			uv := math3d.V2(0, 0)
			if i < len(uvs) {
				// GLTF uses a top-left UV origin; flip V for bottom-left
				uv = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			mesh.AddVertex(p, n, uv, cr, cg, cb)
		}

		// GLTF front faces wind counter-clockwise; the screen-space Y flip
		// reverses orientation, so swap the last two indices of every
		// triangle here.
		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				mesh.AddTriangle(base+indices[i], base+indices[i+2], base+indices[i+1])
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				u := base + uint32(i)
				mesh.AddTriangle(u, u+2, u+1)
			}
		}
	}
	return nil
}

// primitiveColor derives a flat vertex color from the primitive's material
// base color factor, falling back to neutral gray.
func primitiveColor(doc *gltf.Document, prim *gltf.Primitive) (uint8, uint8, uint8) {
	if prim.Material == nil || int(*prim.Material) >= len(doc.Materials) {
		return defaultR, defaultG, defaultB
	}
	mat := doc.Materials[*prim.Material]
	if mat.PBRMetallicRoughness == nil {
		return defaultR, defaultG, defaultB
	}
	f := mat.PBRMetallicRoughness.BaseColorFactorOrDefault()
	clamp := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(v * 255)
	}
	return clamp(f[0]), clamp(f[1]), clamp(f[2])
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}

	data, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range result {
		off := i * stride
		result[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return result, nil
}

func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}

	data, stride, err := accessorBytes(doc, accessor, 8)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec2, accessor.Count)
	for i := range result {
		off := i * stride
		result[i] = math3d.V2(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
		)
	}
	return result, nil
}

// readIndices reads scalar index data of any supported component width.
func readIndices(doc *gltf.Document, accessorIdx int) ([]uint32, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR, got %v", accessor.Type)
	}

	var compSize int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		compSize = 1
	case gltf.ComponentUshort:
		compSize = 2
	case gltf.ComponentUint:
		compSize = 4
	default:
		return nil, fmt.Errorf("unexpected index component type: %v", accessor.ComponentType)
	}

	data, stride, err := accessorBytes(doc, accessor, compSize)
	if err != nil {
		return nil, err
	}

	result := make([]uint32, accessor.Count)
	for i := range result {
		off := i * stride
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			result[i] = uint32(data[off])
		case gltf.ComponentUshort:
			result[i] = uint32(binary.LittleEndian.Uint16(data[off:]))
		case gltf.ComponentUint:
			result[i] = binary.LittleEndian.Uint32(data[off:])
		}
	}
	return result, nil
}

// accessorBytes returns the accessor's raw bytes starting at its first
// element, plus the element stride. Only embedded (GLB) buffers are
// supported.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}

	bv := doc.BufferViews[*accessor.BufferView]
	buf := doc.Buffers[bv.Buffer]
	if buf.URI != "" {
		return nil, 0, fmt.Errorf("external buffers not supported")
	}
	if buf.Data == nil {
		return nil, 0, fmt.Errorf("buffer has no data")
	}

	stride := bv.ByteStride
	if stride == 0 {
		stride = elemSize
	}

	start := bv.ByteOffset + accessor.ByteOffset
	need := start + (accessor.Count-1)*stride + elemSize
	if need > len(buf.Data) {
		return nil, 0, fmt.Errorf("accessor overruns buffer: need %d, have %d", need, len(buf.Data))
	}
	return buf.Data[start:], stride, nil
}

func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}
