package glview

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.6-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/soypat/glgl/math/ms3"
	"github.com/soypat/glgl/v4.6-core/glgl"
)

// Uniform locations, fixed in the shader source.
const (
	uniformViewProj   = 0
	uniformLightPos   = 1
	uniformLightColor = 2
	uniformColor      = 3
)

const meshShader = `
#shader vertex
#version 430 core
layout(location = 0) in vec3 aPosition;
layout(location = 1) in vec3 aNormal;
layout(location = 0) uniform mat4 uViewProj;
out vec3 vNormal;
out vec3 vWorld;
void main() {
	vNormal = aNormal;
	vWorld = aPosition;
	gl_Position = uViewProj * vec4(aPosition, 1.0);
}

#shader fragment
#version 430 core
in vec3 vNormal;
in vec3 vWorld;
layout(location = 1) uniform vec3 uLightPos;
layout(location = 2) uniform vec3 uLightColor;
layout(location = 3) uniform vec3 uObjectColor;
out vec4 fragColor;
void main() {
	vec3 n = normalize(vNormal);
	vec3 l = normalize(uLightPos - vWorld);
	float diffuse = max(dot(n, l), 0.0);
	vec3 color = (0.1 + diffuse * uLightColor) * uObjectColor;
	fragColor = vec4(color, 1.0);
}
`

// Light is a point light.
type Light struct {
	Position ms3.Vec
	Color    ms3.Vec
}

// Program is the shader program used to draw meshes.
type Program struct {
	prog glgl.Program
}

// NewProgram compiles and links the mesh shader program.
func NewProgram() (*Program, error) {
	source, err := glgl.ParseCombined(strings.NewReader(meshShader))
	if err != nil {
		return nil, err
	}
	prog, err := glgl.CompileProgram(source)
	if err != nil {
		return nil, fmt.Errorf("glview: %w", err)
	}
	return &Program{prog: prog}, nil
}

// Use binds the program.
func (p *Program) Use() { p.prog.Bind() }

// SetViewProj sets the view-projection matrix. The program must be bound.
func (p *Program) SetViewProj(m mgl32.Mat4) {
	gl.UniformMatrix4fv(uniformViewProj, 1, false, &m[0])
}

// SetLight sets the point light. The program must be bound.
func (p *Program) SetLight(l Light) {
	gl.Uniform3f(uniformLightPos, l.Position.X, l.Position.Y, l.Position.Z)
	gl.Uniform3f(uniformLightColor, l.Color.X, l.Color.Y, l.Color.Z)
}

// SetColor sets the object color. The program must be bound.
func (p *Program) SetColor(c ms3.Vec) {
	gl.Uniform3f(uniformColor, c.X, c.Y, c.Z)
}

// Delete releases the program.
func (p *Program) Delete() { p.prog.Delete() }
