package services

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"

	"github.com/Mzhdi/Nounou-sub000/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type RekognitionService struct {
	client  *rekognition.Client
	catalog *CatalogService
}

func NewRekognitionService(catalog *CatalogService) (*RekognitionService, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(os.Getenv("AWS_REGION")))
	if err != nil {
		return nil, err
	}
	return &RekognitionService{client: rekognition.NewFromConfig(cfg), catalog: catalog}, nil
}

type IdentifiedItem struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	CatalogID  string  `json:"catalog_id,omitempty"`
}

// NutritionEstimate is the untrusted output of the image analysis
// provider. Its confidence only flags the produced entry; the estimate
// still goes through normal validation and calculation.
type NutritionEstimate struct {
	Nutrition          models.Nutrition `json:"nutrition_estimate"`
	Confidence         float64          `json:"confidence"`
	RawIdentifiedItems []IdentifiedItem `json:"raw_identified_items"`
}

// RecognizeLabels returns the top labels for a base64-encoded image.
func (r *RekognitionService) RecognizeLabels(ctx context.Context, base64Img string) ([]IdentifiedItem, error) {
	idx := strings.Index(base64Img, ",")
	if idx < 0 || !strings.HasPrefix(base64Img, "data:image") {
		return nil, &ValidationError{Field: "image", Message: "invalid data URI"}
	}
	data, err := base64.StdEncoding.DecodeString(base64Img[idx+1:])
	if err != nil {
		return nil, &ValidationError{Field: "image", Message: "invalid base64 payload"}
	}

	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: data},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, &BusinessError{Op: "rekognition.detect_labels", Err: err}
	}

	var items []IdentifiedItem
	for _, l := range out.Labels {
		item := IdentifiedItem{Label: aws.ToString(l.Name)}
		if l.Confidence != nil {
			item.Confidence = round2(float64(*l.Confidence) / 100)
		}
		items = append(items, item)
	}
	return items, nil
}

// EstimateFromImage detects food labels in the image and maps the best
// match onto a catalog entry, producing a per-100g nutrition estimate.
func (r *RekognitionService) EstimateFromImage(ctx context.Context, base64Img string) (*NutritionEstimate, error) {
	items, err := r.RecognizeLabels(ctx, base64Img)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &BusinessError{Op: "rekognition.estimate", Err: errors.New("no labels detected")}
	}

	est := &NutritionEstimate{RawIdentifiedItems: items}
	for i, item := range items {
		foods, err := r.catalog.SearchFoods(ctx, item.Label, 1)
		if err != nil || len(foods) == 0 {
			continue
		}
		est.RawIdentifiedItems[i].CatalogID = foods[0].CatalogID
		if est.Confidence == 0 {
			est.Nutrition = foods[0].Per100g
			est.Confidence = item.Confidence
		}
	}
	if est.Confidence == 0 {
		return nil, &BusinessError{Op: "rekognition.estimate", Err: errors.New("no catalog match for detected labels")}
	}
	return est, nil
}
