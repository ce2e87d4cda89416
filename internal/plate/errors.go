package plate

import "errors"

var (
	// ErrModelLoad reports that the detection model could not be loaded.
	ErrModelLoad = errors.New("detection model could not be loaded")

	// ErrDecode reports that an input could not be decoded as an image or video.
	ErrDecode = errors.New("input could not be decoded")

	// ErrDeviceUnavailable reports that the capture device could not be opened.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrInvalidRegion reports a region that lies outside the frame bounds.
	ErrInvalidRegion = errors.New("region outside frame bounds")
)
