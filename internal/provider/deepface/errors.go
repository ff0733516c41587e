package deepface

import "errors"

var (
	ErrSidecarUnavailable = errors.New("deepface sidecar unavailable")
	ErrInvalidResponse    = errors.New("invalid response from deepface")
	ErrNoFaceInResponse   = errors.New("no face data in deepface response")
)
