package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gracepoint-chapel/church-backend/internal/models"
	"github.com/gracepoint-chapel/church-backend/internal/repositories"
)

// resolveAudience materializes the list of reachable members for a campaign
// target. Only members with a phone number on file are returned.
func resolveAudience(ctx context.Context, repo repositories.AudienceRepository, targetType string, targetID *primitive.ObjectID) ([]*models.AudienceMember, error) {
	switch targetType {
	case models.TargetAllMembers:
		return repo.FindAllMembers(ctx)
	case models.TargetMinistry:
		if targetID == nil {
			return nil, validationErrorf("target ID is required for target type %s", targetType)
		}
		return repo.FindMinistryMembers(ctx, *targetID)
	case models.TargetEventRegistrants:
		if targetID == nil {
			return nil, validationErrorf("target ID is required for target type %s", targetType)
		}
		return repo.FindEventRegistrants(ctx, *targetID)
	default:
		return nil, validationErrorf("unknown target type: %s", targetType)
	}
}

// countAudience counts reachable members without materializing them.
func countAudience(ctx context.Context, repo repositories.AudienceRepository, targetType string, targetID *primitive.ObjectID) (int64, error) {
	switch targetType {
	case models.TargetAllMembers:
		return repo.CountAllMembers(ctx)
	case models.TargetMinistry:
		if targetID == nil {
			return 0, validationErrorf("target ID is required for target type %s", targetType)
		}
		return repo.CountMinistryMembers(ctx, *targetID)
	case models.TargetEventRegistrants:
		if targetID == nil {
			return 0, validationErrorf("target ID is required for target type %s", targetType)
		}
		return repo.CountEventRegistrants(ctx, *targetID)
	default:
		return 0, validationErrorf("unknown target type: %s", targetType)
	}
}

func isValidTargetType(targetType string) bool {
	switch targetType {
	case models.TargetAllMembers, models.TargetMinistry, models.TargetEventRegistrants:
		return true
	}
	return false
}
