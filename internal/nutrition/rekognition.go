package nutrition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"wellness/internal/domain"
	"wellness/internal/infra"
)

const (
	rekognitionMaxLabels     = 5
	rekognitionMinConfidence = 75
)

// LabelDetector is the subset of the Rekognition client the labeler uses.
type LabelDetector interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionLabeler names the food in a photo with Rekognition and resolves
// the top label through a NameLookup.
type RekognitionLabeler struct {
	detector LabelDetector
	lookup   NameLookup
	logger   infra.Logger
}

func NewRekognitionLabeler(detector LabelDetector, lookup NameLookup, logger *infra.Logger) *RekognitionLabeler {
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &RekognitionLabeler{detector: detector, lookup: lookup, logger: infra.Component(*logger, "rekognition")}
}

// NewRekognitionClient builds the AWS client used by the labeler.
func NewRekognitionClient(cfg aws.Config) *rekognition.Client {
	return rekognition.NewFromConfig(cfg)
}

// Labels returns up to five labels with at least 75% confidence.
func (r *RekognitionLabeler) Labels(ctx context.Context, data []byte) ([]string, error) {
	out, err := r.detector.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(rekognitionMaxLabels),
		MinConfidence: aws.Float32(rekognitionMinConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: rekognition: %v", domain.ErrProviderFailure, err)
	}
	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		if name := aws.ToString(l.Name); name != "" {
			labels = append(labels, name)
		}
	}
	return labels, nil
}

// Analyze looks up the first label that the name lookup recognises.
func (r *RekognitionLabeler) Analyze(ctx context.Context, img Image) (*Estimate, error) {
	if len(img.Data) == 0 {
		return nil, domain.Invalid("image", "is required")
	}
	labels, err := r.Labels(ctx, img.Data)
	if err != nil {
		return nil, err
	}
	for _, label := range labels {
		est, err := r.lookup.Lookup(ctx, label)
		if err == nil {
			est.Label = label
			return est, nil
		}
		if !errors.Is(err, ErrNoResult) {
			return nil, err
		}
		r.logger.Debug().Str("label", label).Msg("label not found by name lookup")
	}
	return nil, ErrNoResult
}
