package handler

import _ "embed"

// trackingPixel is the 1x1 transparent PNG served by the letter-open
// tracking endpoint.
//
//go:embed static/pixel.png
var trackingPixel []byte
