package rekognition

// Config holds configuration for the AWS Rekognition detector.
type Config struct {
	// Region is the AWS region for the Rekognition service (e.g. "us-east-1").
	Region string

	// MinConfidence filters detections below this percentage (0-100)
	// before they leave the provider. Rekognition reports confidence in
	// percent, unlike the 0-1 scale used elsewhere in the engine.
	MinConfidence float64
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Region:        "us-east-1",
		MinConfidence: 50.0,
	}
}
