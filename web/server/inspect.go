package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/df07/go-diffuse-pathtracer/pkg/geometry"
	"github.com/df07/go-diffuse-pathtracer/pkg/integrator"
	"github.com/df07/go-diffuse-pathtracer/pkg/material"
	"github.com/df07/go-diffuse-pathtracer/pkg/scene"
)

// InspectResponse describes what the camera ray through a pixel center hits
type InspectResponse struct {
	Hit          bool                   `json:"hit"`
	MaterialType string                 `json:"materialType,omitempty"`
	GeometryType string                 `json:"geometryType,omitempty"`
	ShapeIndex   int                    `json:"shapeIndex"`
	Point        [3]float64             `json:"point"`
	Normal       [3]float64             `json:"normal"`
	Distance     float64                `json:"distance"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// InspectResult holds the nearest hit and the shape that produced it
type InspectResult struct {
	Hit        bool
	HitRecord  material.HitRecord
	Shape      geometry.Shape
	ShapeIndex int
}

// inspectPixel traces the ray through the center of pixel (x, y), with y counted from the top row
func inspectPixel(s *scene.Scene, x, y int) InspectResult {
	width, height := s.SamplingConfig.Width, s.SamplingConfig.Height
	u := (float64(x) + 0.5) / float64(width)
	v := (float64(height-1-y) + 0.5) / float64(height)
	ray := s.Camera.GetRay(u, v)

	hit, isHit := s.Hit(ray, integrator.Epsilon, math.Inf(1))
	if !isHit {
		return InspectResult{Hit: false, ShapeIndex: -1}
	}

	// Find which shape produced the nearest hit
	for i, shape := range s.Shapes {
		if shapeHit, ok := shape.Hit(ray, integrator.Epsilon, math.Inf(1)); ok && shapeHit.T == hit.T {
			return InspectResult{Hit: true, HitRecord: hit, Shape: shape, ShapeIndex: i}
		}
	}

	return InspectResult{Hit: true, HitRecord: hit, ShapeIndex: -1}
}

// extractMaterialInfo extracts the material kind and parameters
func (s *Server) extractMaterialInfo(mat material.Material) (string, map[string]interface{}) {
	desc, ok := material.Describe(mat)
	if !ok {
		return "unknown", map[string]interface{}{}
	}
	return desc.Kind, map[string]interface{}{"albedo": desc.Albedo}
}

// extractGeometryInfo extracts detailed geometry information
func (s *Server) extractGeometryInfo(shape geometry.Shape) (string, map[string]interface{}) {
	properties := make(map[string]interface{})

	switch geom := shape.(type) {
	case *geometry.Sphere:
		properties["center"] = [3]float64{geom.Center.X, geom.Center.Y, geom.Center.Z}
		properties["radius"] = geom.Radius
		return "sphere", properties
	default:
		return "unknown", properties
	}
}

// handleInspect handles ray casting inspection requests
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	inspectReq := &RenderRequest{}
	if err := s.parseCommonSceneParams(r, inspectReq); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid scene parameters: "+err.Error())
		return
	}

	pixelX, err := strconv.Atoi(r.URL.Query().Get("x"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid x coordinate")
		return
	}
	pixelY, err := strconv.Atoi(r.URL.Query().Get("y"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid y coordinate")
		return
	}

	sceneObj, err := s.createScene(inspectReq)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	config := sceneObj.SamplingConfig
	if pixelX < 0 || pixelX >= config.Width || pixelY < 0 || pixelY >= config.Height {
		writeJSONError(w, http.StatusBadRequest, "Pixel coordinates out of bounds")
		return
	}

	result := inspectPixel(sceneObj, pixelX, pixelY)
	if !result.Hit {
		writeJSON(w, http.StatusOK, InspectResponse{Hit: false, ShapeIndex: -1})
		return
	}

	materialType, materialProps := s.extractMaterialInfo(result.HitRecord.Material)
	geometryType, geometryProps := s.extractGeometryInfo(result.Shape)

	hit := result.HitRecord
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: materialType,
		GeometryType: geometryType,
		ShapeIndex:   result.ShapeIndex,
		Point:        [3]float64{hit.Point.X, hit.Point.Y, hit.Point.Z},
		Normal:       [3]float64{hit.Normal.X, hit.Normal.Y, hit.Normal.Z},
		Distance:     hit.T,
		Properties: map[string]interface{}{
			"material": materialProps,
			"geometry": geometryProps,
		},
	})
}
