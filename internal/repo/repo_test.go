package repo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/repo/repotest"
)

func seedUser(t *testing.T, r *repo.GormRepo, username string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{
		Name:         "Test User",
		Username:     username,
		Email:        username + "@example.com",
		Phone:        "555000" + username[len(username)-4:],
		PasswordHash: "hash",
		Role:         role,
	}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := repotest.Repo(t)

	admin := seedUser(t, r, "admin0001", models.RoleAdmin)
	student := seedUser(t, r, "user00002", models.RoleUser)
	assert.Len(t, admin.ID, 24)

	got, err := r.FindUser(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "user00002", got.Username)

	missing, err := r.FindUser(ctx, "ffffffffffffffffffffffff")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = r.GetUser(ctx, "ffffffffffffffffffffffff")
	assert.True(t, repo.IsNotFound(err))

	byEmail, err := r.GetUserByLogin(ctx, "admin0001@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byEmail.ID)

	taken, err := r.UserFieldTaken(ctx, "phone", student.Phone)
	require.NoError(t, err)
	assert.True(t, taken)

	dup := &models.User{Name: "Dup", Username: "user00002", Email: "x@example.com", Phone: "5559999999", PasswordHash: "h", Role: models.RoleUser}
	assert.True(t, repo.IsDuplicate(r.CreateUser(ctx, dup)))

	admins, err := r.CountAdmins(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, admins)

	total, items, err := r.ListUsers(ctx, 0, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, items, 1)
}

func TestBanRecordAndFlagMoveTogether(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := repotest.Repo(t)

	admin := seedUser(t, r, "admin0001", models.RoleAdmin)
	student := seedUser(t, r, "user00002", models.RoleUser)

	boom := errors.New("boom")
	err := r.Transaction(ctx, func(tx *repo.GormRepo) error {
		require.NoError(t, tx.CreateBan(ctx, &models.BannedUser{UserID: student.ID, Reason: "spam", BannedBy: admin.ID}))
		require.NoError(t, tx.SetBanned(ctx, student.ID, true))
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := r.GetUser(ctx, student.ID)
	require.NoError(t, err)
	assert.False(t, u.IsBanned)
	_, err = r.GetBan(ctx, student.ID)
	assert.True(t, repo.IsNotFound(err))

	require.NoError(t, r.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.CreateBan(ctx, &models.BannedUser{UserID: student.ID, Reason: "spam", BannedBy: admin.ID}); err != nil {
			return err
		}
		return tx.SetBanned(ctx, student.ID, true)
	}))
	u, err = r.GetUser(ctx, student.ID)
	require.NoError(t, err)
	assert.True(t, u.IsBanned)

	err = r.CreateBan(ctx, &models.BannedUser{UserID: student.ID, Reason: "again", BannedBy: admin.ID})
	assert.True(t, repo.IsDuplicate(err))

	n, err := r.DeleteBan(ctx, student.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestCoursesAndCascade(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := repotest.Repo(t)

	teacher := seedUser(t, r, "teach0001", models.RoleTeacher)
	student := seedUser(t, r, "user00002", models.RoleUser)

	cat := &models.CourseCategory{Name: "Programming", Href: "programming"}
	require.NoError(t, r.CreateCategory(ctx, cat))

	nameTaken, hrefTaken, err := r.CategoryTaken(ctx, "Programming", "other", "")
	require.NoError(t, err)
	assert.True(t, nameTaken)
	assert.False(t, hrefTaken)

	course := &models.Course{Title: "Go Basics", CategoryID: cat.ID, TeacherID: teacher.ID, Description: "Learn Go from scratch", Cover: "k", Slug: "go-basics", Price: 100}
	other := &models.Course{Title: "Go Advanced", CategoryID: cat.ID, TeacherID: teacher.ID, Description: "Concurrency and more", Cover: "k", Slug: "go-advanced", Price: 200}
	require.NoError(t, r.CreateCourse(ctx, course))
	require.NoError(t, r.CreateCourse(ctx, other))

	related, err := r.RelatedCourses(ctx, course, 5)
	require.NoError(t, err)
	require.Len(t, related, 1)
	assert.Equal(t, other.ID, related[0].ID)

	total, found, err := r.SearchCourses(ctx, "concurrency", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, other.ID, found[0].ID)

	require.NoError(t, r.CreateSession(ctx, &models.Session{CourseID: course.ID, Number: 1, Title: "Intro", Duration: 600, Description: "first", Image: "i", Video: "v", Slug: "go-basics-session-1"}))
	require.NoError(t, r.CreatePurchase(ctx, &models.UserCourse{UserID: student.ID, CourseID: course.ID, Price: 100}))
	require.NoError(t, r.CreateRating(ctx, &models.CourseRating{UserID: student.ID, CourseID: course.ID, Rating: 4}))

	assert.True(t, repo.IsDuplicate(r.CreatePurchase(ctx, &models.UserCourse{UserID: student.ID, CourseID: course.ID, Price: 100})))

	sum, err := r.RatingSummary(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, sum.Total)
	assert.InDelta(t, 4.0, sum.Average, 0.001)

	n, err := r.DeleteCourse(ctx, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	sessions, err := r.CountSessions(ctx, course.ID)
	require.NoError(t, err)
	assert.Zero(t, sessions)
	bought, err := r.HasPurchased(ctx, student.ID, course.ID)
	require.NoError(t, err)
	assert.False(t, bought)
}

func TestComments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	r := repotest.Repo(t)

	student := seedUser(t, r, "user00002", models.RoleUser)
	parent := &models.Comment{UserID: student.ID, CourseID: "c", SessionID: "s", Text: "A good course"}
	require.NoError(t, r.CreateComment(ctx, parent))
	reply := &models.Comment{UserID: student.ID, CourseID: "c", SessionID: "s", Text: "Thanks a lot", IsReply: true, ReplyTo: &parent.ID, Approved: true}
	require.NoError(t, r.CreateComment(ctx, reply))

	total, pending, err := r.NotApprovedComments(ctx, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, parent.ID, pending[0].ID)

	require.NoError(t, r.ApproveComment(ctx, parent.ID))
	comments, replies, err := r.ApprovedComments(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, comments, 1)
	assert.Len(t, replies, 1)

	n, err := r.DeleteComment(ctx, parent.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	_, err = r.GetComment(ctx, reply.ID)
	assert.True(t, repo.IsNotFound(err))
}
