// Package rekognition wraps AWS Rekognition's DetectFaces API as a face
// Detector. Rekognition does not expose raw embeddings, so this provider
// is detect-only; the factory pairs it with a separate Encoder (hybrid
// mode: cloud detection, sidecar embeddings).
package rekognition

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/lousa-digital/chamada/internal/domain"
	"github.com/lousa-digital/chamada/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeInvalidImage     = "InvalidImageFormatException"
	errCodeImageTooLarge    = "ImageTooLargeException"
	errCodeThrottling       = "ThrottlingException"
	errCodeProvisionedLimit = "ProvisionedThroughputExceededException"
)

// Detector implements provider.Detector using AWS Rekognition.
type Detector struct {
	client *rekognition.Client
	config Config
}

// NewDetector creates a Rekognition-backed detector using the AWS
// default credential chain.
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	if cfg.Region == "" {
		cfg.Region = DefaultConfig().Region
	}
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = DefaultConfig().MinConfidence
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	return &Detector{
		client: rekognition.NewFromConfig(awsCfg),
		config: cfg,
	}, nil
}

// validateImage checks if image data is valid for Rekognition processing.
func validateImage(img []byte) error {
	if len(img) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(img), minImageSize)
	}
	if len(img) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(img), maxImageSize)
	}
	return nil
}

// DetectFaces detects faces using the Rekognition DetectFaces API.
// Rekognition reports bounding boxes as ratios of the frame; they are
// converted to pixel coordinates from the image header so downstream
// cropping needs no knowledge of the provider.
func (d *Detector) DetectFaces(ctx context.Context, img []byte) ([]provider.DetectedFace, error) {
	if err := validateImage(img); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	input := &rekognition.DetectFacesInput{
		Image: &types.Image{
			Bytes: img,
		},
		Attributes: []types.Attribute{types.AttributeDefault},
	}

	output, err := d.client.DetectFaces(ctx, input)
	if err != nil {
		return nil, mapAWSError(err)
	}

	faces := make([]provider.DetectedFace, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil || detail.Confidence == nil {
			continue
		}
		confidence := float64(aws.ToFloat32(detail.Confidence))
		if confidence < d.config.MinConfidence {
			continue
		}

		box := detail.BoundingBox
		faces = append(faces, provider.DetectedFace{
			BoundingBox: domain.BoundingBox{
				X:      int(float64(aws.ToFloat32(box.Left)) * float64(cfg.Width)),
				Y:      int(float64(aws.ToFloat32(box.Top)) * float64(cfg.Height)),
				Width:  int(float64(aws.ToFloat32(box.Width)) * float64(cfg.Width)),
				Height: int(float64(aws.ToFloat32(box.Height)) * float64(cfg.Height)),
			},
			// normalize percent to the engine's 0-1 scale
			Confidence: confidence / 100.0,
		})
	}

	return faces, nil
}

// mapAWSError translates Rekognition API errors into provider errors.
func mapAWSError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("detect faces: %w", err)
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	case errCodeInvalidImage, errCodeImageTooLarge:
		return fmt.Errorf("%w: %v", ErrInvalidImage, err)
	case errCodeThrottling, errCodeProvisionedLimit:
		return fmt.Errorf("%w: %v", ErrThrottled, err)
	default:
		return fmt.Errorf("detect faces: %w", err)
	}
}

var _ provider.Detector = (*Detector)(nil)
