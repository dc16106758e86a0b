package metadata

import "github.com/go-gl/mathgl/mgl32"

// MaxLights is the number of directional lights carried by the pass constants.
const MaxLights = 3

// ObjectConstants is the per render item entry of the object constant buffer.
type ObjectConstants struct {
	World        mgl32.Mat4
	TexTransform mgl32.Mat4
}

// MaterialConstants is the per material entry of the material constant buffer.
type MaterialConstants struct {
	DiffuseAlbedo mgl32.Vec4
	FresnelR0     mgl32.Vec3
	Roughness     float32
	MatTransform  mgl32.Mat4
}

type Light struct {
	Strength     mgl32.Vec3
	FalloffStart float32
	Direction    mgl32.Vec3
	FalloffEnd   float32
	Position     mgl32.Vec3
	SpotPower    float32
}

// PassConstants holds the per frame state shared by every draw call.
type PassConstants struct {
	View                mgl32.Mat4
	InvView             mgl32.Mat4
	Proj                mgl32.Mat4
	InvProj             mgl32.Mat4
	ViewProj            mgl32.Mat4
	InvViewProj         mgl32.Mat4
	EyePosW             mgl32.Vec3
	RenderTargetSize    mgl32.Vec2
	InvRenderTargetSize mgl32.Vec2
	NearZ               float32
	FarZ                float32
	TotalTime           float32
	DeltaTime           float32
	AmbientLight        mgl32.Vec4
	Lights              [MaxLights]Light
}
