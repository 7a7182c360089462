package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/equipment-diagnostics/internal/models"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMongoUserCollection_InsertUser(t *testing.T) {
	database := testDatabase(t)
	collection := database.Collection(UsersCollection)
	userCollection := &MongoUserCollection{Collection: collection}

	user := models.User{
		Email:        " Tech@Example.com ",
		PasswordHash: "hashedpassword",
		Role:         models.RoleTechnician,
		DisplayName:  "Test Tech",
	}

	saved, err := userCollection.InsertUser(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, saved.ID.IsZero())

	// Verify user was inserted
	var foundUser models.User
	err = collection.FindOne(context.Background(), bson.M{"email": "tech@example.com"}).Decode(&foundUser)
	assert.NoError(t, err)
	assert.Equal(t, "tech@example.com", foundUser.Email)
	assert.Equal(t, user.Role, foundUser.Role)
	assert.True(t, foundUser.IsActive)
	assert.NotZero(t, foundUser.CreatedAt)
	assert.NotZero(t, foundUser.UpdatedAt)
}

func TestMongoUserCollection_FindAndUpdate(t *testing.T) {
	database := testDatabase(t)
	userCollection := &MongoUserCollection{Collection: database.Collection(UsersCollection)}
	ctx := context.Background()

	saved, err := userCollection.InsertUser(ctx, models.User{Email: "a@b.co", PasswordHash: "old", Role: models.RoleViewer})
	require.NoError(t, err)

	byEmail, err := userCollection.FindUserByEmail(ctx, "A@B.CO")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, byEmail.ID)

	byID, err := userCollection.FindUserByID(ctx, saved.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "a@b.co", byID.Email)

	require.NoError(t, userCollection.UpdatePassword(ctx, saved.ID.Hex(), "new"))
	require.NoError(t, userCollection.UpdateLastLogin(ctx, saved.ID.Hex()))
	byID, err = userCollection.FindUserByID(ctx, saved.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "new", byID.PasswordHash)
	assert.NotNil(t, byID.LastLogin)

	_, err = userCollection.FindUserByEmail(ctx, "nobody@b.co")
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Test with invalid ID
	_, err = userCollection.FindUserByID(ctx, "invalid-id")
	assert.Error(t, err)
}
