//go:build !headless

package opengl

// Vertex input for every program: the unit quad corner and the weights that
// pick its corner color. The fifth vertex is the center used by the
// four-triangle mode.
const vertexHeader = `#version 410 core
layout(location = 0) in vec2 corner;
layout(location = 1) in vec4 weights;

uniform vec2 screenSize;
uniform float screenFlip;

out vec2 texCoord;
out vec4 vertexColor;

vec4 toClip(vec2 pos, float z) {
	vec2 ndc = pos / screenSize * 2.0 - 1.0;
	return vec4(ndc.x, ndc.y * screenFlip, z, 1.0);
}
`

const defaultVertexSource = vertexHeader + `
uniform mat4 rotationMatrix;
uniform vec2 size;
uniform vec2 entityPos;
uniform vec2 center;
uniform vec2 flipMul;
uniform vec2 flipAdd;
uniform vec2 bitmapSize;
uniform vec2 scroll;
uniform vec2 multiply;
uniform vec2 cameraPos;
uniform vec2 rectSize;
uniform vec2 rectPos;
uniform vec4 color0;
uniform vec4 color1;
uniform vec4 color2;
uniform vec4 color3;
uniform float depth;

void main() {
	vec2 local = corner * size - center;
	vec2 pos = (rotationMatrix * vec4(local, 0.0, 1.0)).xy + entityPos - cameraPos;
	gl_Position = toClip(pos, depth);

	vec2 tc = corner * flipMul + flipAdd;
	texCoord = (tc * rectSize + rectPos + scroll) / bitmapSize * multiply;
	vertexColor = weights.x * color0 + weights.y * color1 + weights.z * color2 + weights.w * color3;
}
` + "\x00"

const fontVertexSource = vertexHeader + `
uniform vec2 size;
uniform vec2 entityPos;
uniform vec2 bitmapSize;
uniform vec2 cameraPos;
uniform vec2 rectSize;
uniform vec2 rectPos;
uniform vec4 color0;

void main() {
	vec2 pos = corner * size + entityPos - cameraPos;
	gl_Position = toClip(pos, 0.0);
	texCoord = (corner * rectSize + rectPos) / bitmapSize;
	vertexColor = color0;
}
` + "\x00"

const fragmentHeader = `#version 410 core
in vec2 texCoord;
in vec4 vertexColor;

uniform sampler2D diffuse;
uniform float alphaRef;

out vec4 fragColor;
`

const defaultFragmentSource = fragmentHeader + `
void main() {
	vec4 c = texture(diffuse, texCoord) * vertexColor;
	if (c.a < alphaRef) discard;
	fragColor = c;
}
` + "\x00"

const modulateFragmentSource = fragmentHeader + `
uniform sampler2D pass1;

void main() {
	vec4 c = texture(diffuse, texCoord) * vertexColor * texture(pass1, texCoord);
	if (c.a < alphaRef) discard;
	fragColor = c;
}
` + "\x00"

const addFragmentSource = fragmentHeader + `
uniform sampler2D pass1;

void main() {
	vec4 c = texture(diffuse, texCoord) * vertexColor;
	c.rgb += texture(pass1, texCoord).rgb;
	if (c.a < alphaRef) discard;
	fragColor = c;
}
` + "\x00"
