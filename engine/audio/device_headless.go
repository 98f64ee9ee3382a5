//go:build headless

package audio

// OpenDevice returns a null device in headless builds.
func OpenDevice(sampleRate int) (Device, error) {
	return NewNullDevice(sampleRate), nil
}
