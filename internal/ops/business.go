package ops

import (
	"context"

	"github.com/stablebuilds/quoter/internal/business"
)

// BusinessOutput is the business profile plus whether it was ever saved.
type BusinessOutput struct {
	Profile business.Profile `json:"profile"`
	Saved   bool             `json:"saved"`
}

// GetBusiness returns the business profile, or the defaults.
func GetBusiness(ctx context.Context, svc *Services) (*BusinessOutput, error) {
	p, err := svc.Business.Get(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := svc.Business.HasSaved(ctx)
	if err != nil {
		return nil, err
	}
	return &BusinessOutput{Profile: p, Saved: saved}, nil
}

// UpdateBusiness applies a partial update to the business profile.
func UpdateBusiness(ctx context.Context, svc *Services, patch business.Patch) (*BusinessOutput, error) {
	p, err := svc.Business.Update(ctx, patch)
	if err != nil {
		return nil, err
	}
	return &BusinessOutput{Profile: p, Saved: true}, nil
}

// ResetBusiness restores the default profile.
func ResetBusiness(ctx context.Context, svc *Services) (*BusinessOutput, error) {
	p, err := svc.Business.Reset(ctx)
	if err != nil {
		return nil, err
	}
	return &BusinessOutput{Profile: p, Saved: true}, nil
}
