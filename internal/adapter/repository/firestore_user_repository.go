package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"talentlink/internal/domain/entity"
	"talentlink/internal/domain/repository"
	"talentlink/pkg/errors"
)

// AvatarResolver turns an avatar object path inside the avatar bucket into a
// servable URL. Implemented by the cloud storage client.
type AvatarResolver interface {
	PublicURL(objectPath string) string
}

type firestoreUserRepository struct {
	client  *firestore.Client
	avatars AvatarResolver
}

func NewFirestoreUserRepository(client *firestore.Client, avatars AvatarResolver) repository.UserRepository {
	return &firestoreUserRepository{
		client:  client,
		avatars: avatars,
	}
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}

	if user.AvatarURL == "" && user.AvatarPath != "" && r.avatars != nil {
		user.AvatarURL = r.avatars.PublicURL(user.AvatarPath)
	}

	return &user, nil
}
