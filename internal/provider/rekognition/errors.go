package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates an image Rekognition cannot process
	ErrInvalidImage = errors.New("image not processable by rekognition")

	// ErrThrottled indicates the AWS API rejected the call for rate reasons
	ErrThrottled = errors.New("rekognition request throttled")
)
