package paranoia

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/winworks/paranoia/internal/testutils"
)

// testEnv wires the full fixture graph: Post --comments--> Comment
// --attachments--> Attachment, all sharing one memory transaction runner.
type testEnv struct {
	registry *Registry
	tx       *MemoryTxRunner

	postRepo    *InMemoryConnector[testutils.Post, int64]
	commentRepo *InMemoryConnector[testutils.Comment, int64]
	attachRepo  *InMemoryConnector[testutils.Attachment, int64]

	posts       *Engine[testutils.Post, int64]
	comments    *Engine[testutils.Comment, int64]
	attachments *Engine[testutils.Attachment, int64]
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	registry := NewRegistry()
	require.NoError(t, Register[testutils.Post](registry, Config{Column: "deleted_at", ColumnType: SchemeTimestamp}))
	require.NoError(t, Register[testutils.Comment](registry, Config{Column: "deleted_at", ColumnType: SchemeTimestamp}))
	require.NoError(t, Register[testutils.Attachment](registry, Config{Column: "is_deleted", ColumnType: SchemeFlag}))

	postRepo := NewInMemoryConnector[testutils.Post](func(p *testutils.Post) int64 { return p.ID })
	commentRepo := NewInMemoryConnector[testutils.Comment](func(c *testutils.Comment) int64 { return c.ID })
	attachRepo := NewInMemoryConnector[testutils.Attachment](func(a *testutils.Attachment) int64 { return a.ID })

	tx := NewMemoryTxRunner(postRepo, commentRepo, attachRepo)

	posts, err := NewEngine[testutils.Post, int64](postRepo, registry, tx, func(p *testutils.Post) int64 { return p.ID })
	require.NoError(t, err)
	comments, err := NewEngine[testutils.Comment, int64](commentRepo, registry, tx, func(c *testutils.Comment) int64 { return c.ID })
	require.NoError(t, err)
	attachments, err := NewEngine[testutils.Attachment, int64](attachRepo, registry, tx, func(a *testutils.Attachment) int64 { return a.ID })
	require.NoError(t, err)

	require.NoError(t, RegisterAssociation[testutils.Post](registry, AssociationEdge{
		Name:   "comments",
		Kind:   CascadeDestroy,
		Target: comments,
		OwnerScope: func(owner any) *Filter {
			p := owner.(*testutils.Post)
			return NewFilter().Where("post_id", OpEqual, p.ID).Build()
		},
	}))
	require.NoError(t, RegisterAssociation[testutils.Comment](registry, AssociationEdge{
		Name:   "attachments",
		Kind:   CascadeDestroy,
		Target: attachments,
		OwnerScope: func(owner any) *Filter {
			c := owner.(*testutils.Comment)
			return NewFilter().Where("comment_id", OpEqual, c.ID).Build()
		},
	}))

	return &testEnv{
		registry:    registry,
		tx:          tx,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		attachRepo:  attachRepo,
		posts:       posts,
		comments:    comments,
		attachments: attachments,
	}
}

func (env *testEnv) createPost(t *testing.T, id int64, title string) *testutils.Post {
	t.Helper()
	p := &testutils.Post{ID: id, Title: title}
	require.NoError(t, env.postRepo.Create(context.Background(), p))
	return p
}

func (env *testEnv) createComment(t *testing.T, id, postID int64) *testutils.Comment {
	t.Helper()
	c := &testutils.Comment{ID: id, PostID: postID, Body: "b"}
	require.NoError(t, env.commentRepo.Create(context.Background(), c))
	return c
}

func (env *testEnv) createAttachment(t *testing.T, id, commentID int64) *testutils.Attachment {
	t.Helper()
	a := &testutils.Attachment{ID: id, CommentID: commentID, FileName: "f"}
	require.NoError(t, env.attachRepo.Create(context.Background(), a))
	return a
}

func TestEngine_SoftDeleteAndScopes_Timestamp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "hello")

	require.False(t, env.posts.IsDeleted(post))

	_, err := env.posts.SoftDelete(ctx, post, false)
	require.NoError(t, err)

	assert.True(t, env.posts.IsDeleted(post))
	assert.NotNil(t, post.DeletedAt)

	live, err := env.posts.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, live)

	deleted, err := env.posts.FindOnlyDeleted(ctx, nil)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, int64(1), deleted[0].ID)

	all, err := env.posts.FindWithDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEngine_SoftDeleteAndScopes_Flag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	att := env.createAttachment(t, 1, 10)

	_, err := env.attachments.SoftDelete(ctx, att, true)
	require.NoError(t, err)
	assert.True(t, att.Deleted)

	live, err := env.attachments.Find(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, live)

	deleted, err := env.attachments.FindOnlyDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, deleted, 1)

	all, err := env.attachments.FindWithDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEngine_RestoreRoundTripAndIdempotence(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "hello")

	_, err := env.posts.Destroy(ctx, post)
	require.NoError(t, err)
	require.True(t, env.posts.IsDeleted(post))

	_, err = env.posts.Restore(ctx, post, false)
	require.NoError(t, err)
	assert.False(t, env.posts.IsDeleted(post))
	assert.Nil(t, post.DeletedAt, "marker must return to its pre-delete value")

	// restoring an already live record must not error
	_, err = env.posts.Restore(ctx, post, false)
	require.NoError(t, err)
	assert.False(t, env.posts.IsDeleted(post))
}

func TestEngine_NoOpRestoreStillRunsChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "live")

	var hookRuns int
	env.posts.BeforeRestore(func(ctx context.Context, pc *PhaseContext[testutils.Post]) error {
		hookRuns++
		return nil
	})

	_, err := env.posts.Restore(ctx, post, false)
	require.NoError(t, err)
	assert.Equal(t, 1, hookRuns, "restore of a live record still runs the chain")
}

func TestEngine_NotPersisted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := &testutils.Post{Title: "never saved"}

	_, err := env.posts.SoftDelete(ctx, post, false)
	assert.ErrorIs(t, err, ErrNotPersisted)

	_, err = env.posts.Destroy(ctx, post)
	assert.ErrorIs(t, err, ErrNotPersisted)

	_, err = env.posts.Restore(ctx, post, false)
	assert.ErrorIs(t, err, ErrNotPersisted)

	assert.ErrorIs(t, env.posts.HardDestroy(ctx, post), ErrNotPersisted)
}

func TestEngine_RestoreHookOrderingAndHalt(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "halted")

	_, err := env.posts.Destroy(ctx, post)
	require.NoError(t, err)

	var aroundRan, afterRan bool
	env.posts.BeforeRestore(func(ctx context.Context, pc *PhaseContext[testutils.Post]) error {
		return ErrHalted
	})
	env.posts.AroundRestore(func(ctx context.Context, pc *PhaseContext[testutils.Post], next func() error) error {
		aroundRan = true
		return next()
	})
	env.posts.AfterRestore(func(ctx context.Context, pc *PhaseContext[testutils.Post]) error {
		afterRan = true
		return nil
	})

	_, err = env.posts.Restore(ctx, post, false)
	require.ErrorIs(t, err, ErrHalted)

	assert.False(t, aroundRan, "around must not run after a halt")
	assert.False(t, afterRan, "after must not run after a halt")

	stored, err := env.postRepo.Get(ctx, 1)
	require.NoError(t, err)
	assert.NotNil(t, stored.DeletedAt, "marker must never be modified when a before hook halts")
	assert.True(t, env.posts.IsDeleted(post))
}

func TestEngine_DestroyHaltLeavesStoreUntouched(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "guarded")

	env.posts.BeforeDestroy(func(ctx context.Context, pc *PhaseContext[testutils.Post]) error {
		return ErrHalted
	})

	_, err := env.posts.Destroy(ctx, post)
	require.ErrorIs(t, err, ErrHalted)

	stored, err := env.postRepo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, stored.DeletedAt)
	assert.False(t, env.posts.IsDeleted(post))
}

func TestEngine_DestroyStrict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "strict")

	_, err := env.posts.DestroyStrict(ctx, post)
	require.NoError(t, err)

	_, err = env.posts.DestroyStrict(ctx, post)
	assert.ErrorIs(t, err, ErrRecordNotDestroyed)

	// the plain variant re-runs the machinery without complaint
	_, err = env.posts.Destroy(ctx, post)
	assert.NoError(t, err)
}

func TestEngine_RestoreByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	deleted := env.createPost(t, 1, "deleted")
	env.createPost(t, 2, "live")

	_, err := env.posts.Destroy(ctx, deleted)
	require.NoError(t, err)

	restored, err := env.posts.RestoreByID(ctx, false, 1, 2, 99)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrItemNotFound)

	require.Len(t, restored, 1)
	assert.Equal(t, int64(1), restored[0].ID)
	assert.False(t, env.posts.IsDeleted(restored[0]))
}

func TestEngine_HardDestroy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "gone")

	require.NoError(t, env.posts.HardDestroy(ctx, post))

	_, err := env.postRepo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrItemNotFound)

	all, err := env.posts.FindWithDeleted(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, all, "hard destroy removes the record from every scope")
}

func TestEngine_TimestampMarkerRecordsDeletionTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "timed")

	before := time.Now().Add(-time.Second)
	_, err := env.posts.SoftDelete(ctx, post, false)
	require.NoError(t, err)
	after := time.Now().Add(time.Second)

	require.NotNil(t, post.DeletedAt)
	assert.True(t, post.DeletedAt.After(before) && post.DeletedAt.Before(after))
}

func TestNewEngine_Validation(t *testing.T) {
	registry := NewRegistry()
	repo := NewInMemoryConnector[testutils.Post](func(p *testutils.Post) int64 { return p.ID })
	tx := NewMemoryTxRunner(repo)
	getID := func(p *testutils.Post) int64 { return p.ID }

	t.Run("unregistered type", func(t *testing.T) {
		_, err := NewEngine[testutils.Post, int64](repo, registry, tx, getID)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("nil collaborators", func(t *testing.T) {
		require.NoError(t, Register[testutils.Post](registry, Config{Column: "deleted_at", ColumnType: SchemeTimestamp}))
		_, err := NewEngine[testutils.Post, int64](nil, registry, tx, getID)
		assert.ErrorIs(t, err, ErrConfiguration)
		_, err = NewEngine[testutils.Post, int64](repo, nil, tx, getID)
		assert.ErrorIs(t, err, ErrConfiguration)
		_, err = NewEngine[testutils.Post, int64](repo, registry, nil, getID)
		assert.ErrorIs(t, err, ErrConfiguration)
		_, err = NewEngine[testutils.Post, int64](repo, registry, tx, nil)
		assert.ErrorIs(t, err, ErrConfiguration)
	})
}

func TestEngine_MetricsAndLoggerDoNotInterfere(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1, "observed")

	env.posts.SetLogger(NewNoOpLogger())
	env.posts.SetMetrics(NewMetricsCollector(prometheus.NewRegistry()))

	_, err := env.posts.Destroy(ctx, post)
	require.NoError(t, err)
	_, err = env.posts.Restore(ctx, post, false)
	require.NoError(t, err)
	assert.False(t, env.posts.IsDeleted(post))
}
