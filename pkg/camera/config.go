// Package camera reads webcam frames, runs them through the trainer pipeline
// and fans the encoded JPEGs out to stream viewers.
package camera

// Config holds capture and encode settings.
type Config struct {
	Device    int `json:"device" yaml:"device"`       // OpenCV device index
	Width     int `json:"width" yaml:"width"`         // Requested frame width in pixels
	Height    int `json:"height" yaml:"height"`       // Requested frame height in pixels
	Framerate int `json:"framerate" yaml:"framerate"` // Requested FPS
	Quality   int `json:"quality" yaml:"quality"`     // JPEG quality 1-100
}

// Error frame geometry used when the device cannot be opened.
const (
	ErrorFrameWidth  = 640
	ErrorFrameHeight = 480
)

// DefaultConfig returns 640x480 at 30 FPS from the first device.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be 0 or greater")
	}
	if c.Width < 160 || c.Width > 3840 {
		errors = append(errors, "width must be between 160 and 3840")
	}
	if c.Height < 120 || c.Height > 2160 {
		errors = append(errors, "height must be between 120 and 2160")
	}
	if c.Framerate < 1 || c.Framerate > 120 {
		errors = append(errors, "framerate must be between 1 and 120")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
