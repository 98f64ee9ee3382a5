package platform

// ClientAPI selects what kind of graphics context the window is created with.
type ClientAPI uint8

const (
	// No context; the backend attaches to the native window (Direct3D9,
	// Vulkan) or does not present at all (software).
	ClientAPINone ClientAPI = iota
	// An OpenGL 4.1 core profile context made current on the main thread.
	ClientAPIOpenGL
)

// WindowConfig describes the window opened by Startup.
type WindowConfig struct {
	Title  string
	X, Y   int32
	Width  uint32
	Height uint32
	API    ClientAPI
	VSync  bool
	// Headless skips the native window even in windowed builds.
	Headless bool
}
