package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/ekklesia/internal/apperr"
	"github.com/suteetoe/ekklesia/internal/model"
)

func createChurch(t *testing.T, repo *ChurchRepository, userID, name string, parentID *string) *model.Church {
	t.Helper()

	church := &model.Church{UserID: userID, Name: name, ParentID: parentID}
	church.SetValues(model.MetricValues{"participants": 10})
	require.NoError(t, repo.Create(context.Background(), church))
	return church
}

func TestChurchOwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	ctx := context.Background()
	alice := newTestUser(t, db, "alice@example.com")
	bob := newTestUser(t, db, "bob@example.com")

	aliceRoot := createChurch(t, repo, alice.ID, "Alice root", nil)
	createChurch(t, repo, bob.ID, "Bob root", nil)

	churches, err := repo.ListByUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, churches, 1)
	assert.Equal(t, alice.ID, churches[0].UserID)

	found, err := repo.GetByID(ctx, aliceRoot.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	updated, err := repo.Update(ctx, aliceRoot.ID, bob.ID, ChurchChanges{Name: strPtr("Stolen")})
	require.NoError(t, err)
	assert.Nil(t, updated)

	deleted, err := repo.Delete(ctx, aliceRoot.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestChurchListNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	user := newTestUser(t, db, "a@example.com")

	root := createChurch(t, repo, user.ID, "Root", nil)
	time.Sleep(5 * time.Millisecond)
	child := createChurch(t, repo, user.ID, "Child", &root.ID)

	churches, err := repo.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, churches, 2)
	assert.Equal(t, child.ID, churches[0].ID)
	assert.Equal(t, root.ID, churches[1].ID)

	empty, err := repo.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestChurchDeleteRootFails(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	user := newTestUser(t, db, "a@example.com")
	root := createChurch(t, repo, user.ID, "Root", nil)
	createChurch(t, repo, user.ID, "Child", &root.ID)

	found, err := repo.Delete(context.Background(), root.ID, user.ID)
	assert.True(t, found)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvariant))
	assert.EqualError(t, err, "Cannot delete the root church")

	count, err := repo.CountByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestChurchDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	ctx := context.Background()
	user := newTestUser(t, db, "a@example.com")

	root := createChurch(t, repo, user.ID, "Root", nil)
	a := createChurch(t, repo, user.ID, "A", &root.ID)
	b := createChurch(t, repo, user.ID, "B", &a.ID)
	c := createChurch(t, repo, user.ID, "C", &b.ID)
	sibling := createChurch(t, repo, user.ID, "Sibling", &root.ID)

	found, err := repo.Delete(ctx, a.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, found)

	for _, id := range []string{a.ID, b.ID, c.ID} {
		gone, err := repo.GetByID(ctx, id, user.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	}

	var dangling int64
	require.NoError(t, db.Model(&model.Church{}).Where("parent_id IN ?", []string{a.ID, b.ID, c.ID}).Count(&dangling).Error)
	assert.Zero(t, dangling)

	remaining, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	ids := []string{}
	for _, church := range remaining {
		ids = append(ids, church.ID)
	}
	assert.ElementsMatch(t, []string{root.ID, sibling.ID}, ids)
}

func TestChurchMetricsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	ctx := context.Background()
	user := newTestUser(t, db, "a@example.com")

	church := &model.Church{UserID: user.ID, Name: "North"}
	church.SetValues(model.MetricValues{"x": 5})
	require.NoError(t, repo.Create(ctx, church))

	loaded, err := repo.GetByID(ctx, church.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MetricValues{"x": 5}, loaded.Values())

	updated, err := repo.Update(ctx, church.ID, user.ID, ChurchChanges{Metrics: model.MetricValues{"x": 5, "y": 0}})
	require.NoError(t, err)
	require.NotNil(t, updated)

	loaded, err = repo.GetByID(ctx, church.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MetricValues{"x": 5, "y": 0}, loaded.Values())
	assert.Equal(t, "North", loaded.Name)
}

func TestChurchChildrenAndRoot(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	ctx := context.Background()
	user := newTestUser(t, db, "a@example.com")

	root := createChurch(t, repo, user.ID, "Root", nil)
	createChurch(t, repo, user.ID, "Zeta", &root.ID)
	alpha := createChurch(t, repo, user.ID, "Alpha", &root.ID)
	createChurch(t, repo, user.ID, "Nested", &alpha.ID)

	children, err := repo.GetChildren(ctx, root.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "Alpha", children[0].Name)
	assert.Equal(t, "Zeta", children[1].Name)

	found, err := repo.GetRoot(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, root.ID, found.ID)

	inside, err := repo.IsDescendant(ctx, root.ID, alpha.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, inside)

	inside, err = repo.IsDescendant(ctx, alpha.ID, root.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, inside)
}

func TestChurchSaveValues(t *testing.T) {
	db := newTestDB(t)
	repo := NewChurchRepository(db)
	ctx := context.Background()
	user := newTestUser(t, db, "a@example.com")
	church := createChurch(t, repo, user.ID, "Root", nil)

	values := church.Values()
	values["baptized"] = 0
	church.SetValues(values)
	require.NoError(t, repo.SaveValues(ctx, church))

	loaded, err := repo.GetByID(ctx, church.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MetricValues{"participants": 10, "baptized": 0}, loaded.Values())
}
