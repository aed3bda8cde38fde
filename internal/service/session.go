package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/upload"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type SessionService struct {
	Repo    *repo.GormRepo
	Uploads upload.Issuer
	Events  events.Publisher
}

type NewSession struct {
	CourseID    string
	Title       string
	Duration    int
	Description string
	Free        bool
}

type CreatedSession struct {
	Session        *models.Session `json:"session"`
	ImageUploadURL string          `json:"imageUploadUrl"`
	VideoUploadURL string          `json:"videoUploadUrl"`
}

// Create numbers the session after the existing ones of its course and
// derives its slug from the course slug.
func (s *SessionService) Create(ctx context.Context, in NewSession) (*CreatedSession, error) {
	l := logging.FromContext(ctx).With("svc", "session.create", "course", in.CourseID)

	var (
		sess         *models.Session
		image, video upload.Ticket
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		c, err := tx.GetCourse(ctx, in.CourseID)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFound("Course not found")
			}
			return err
		}
		n, err := tx.CountSessions(ctx, c.ID)
		if err != nil {
			return err
		}
		number := int(n) + 1

		if image, err = s.Uploads.Issue(ctx, fmt.Sprintf("session-%d-image", number), "image"); err != nil {
			return err
		}
		if video, err = s.Uploads.Issue(ctx, fmt.Sprintf("session-%d-video", number), "video"); err != nil {
			return err
		}

		sess = &models.Session{
			CourseID:    c.ID,
			Number:      number,
			Title:       in.Title,
			Duration:    in.Duration,
			Description: in.Description,
			Free:        in.Free,
			Image:       image.Key,
			Video:       video.Key,
			Slug:        fmt.Sprintf("%s-session-%d", c.Slug, number),
		}
		return tx.CreateSession(ctx, sess)
	})
	if err != nil {
		if repo.IsDuplicate(err) {
			err = conflict("Session slug is already taken")
		}
		l.Warn("create_session_failed", "error", err)
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicCourses, sess.CourseID, events.New("session_created", sess.ID, map[string]any{
		"courseId": sess.CourseID,
		"number":   sess.Number,
	}))
	l.Info("create_session_successful", "session", sess.ID)
	return &CreatedSession{Session: sess, ImageUploadURL: image.URL, VideoUploadURL: video.URL}, nil
}

func (s *SessionService) List(ctx context.Context, page, size int, asc bool) (util.Page[models.Session], error) {
	from, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListSessions(ctx, from, limit, asc)
	if err != nil {
		return util.Page[models.Session]{}, err
	}
	return util.NewPage(items, page, limit, total), nil
}

type SessionView struct {
	Session                *models.Session `json:"session"`
	DoesUserHaveFullAccess bool            `json:"doesUserHaveFullAccess"`
}

type CourseSessions struct {
	Sessions               []models.Session `json:"sessions"`
	DoesUserHaveFullAccess bool             `json:"doesUserHaveFullAccess"`
}

func (s *SessionService) ByID(ctx context.Context, p access.Principal, id string) (*SessionView, error) {
	sess, err := s.Repo.GetSession(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Session not found")
		}
		return nil, err
	}
	return s.view(ctx, p, sess)
}

func (s *SessionService) BySlug(ctx context.Context, p access.Principal, slug string) (*SessionView, error) {
	sess, err := s.Repo.GetSessionBySlug(ctx, slug)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Session not found")
		}
		return nil, err
	}
	return s.view(ctx, p, sess)
}

func (s *SessionService) ByCourse(ctx context.Context, p access.Principal, courseID string) (*CourseSessions, error) {
	if _, err := s.Repo.GetCourse(ctx, courseID); err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course not found")
		}
		return nil, err
	}
	full, err := s.fullAccess(ctx, p, courseID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.Repo.SessionsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		blankPaid(&sessions[i], full)
	}
	return &CourseSessions{Sessions: sessions, DoesUserHaveFullAccess: full}, nil
}

func (s *SessionService) view(ctx context.Context, p access.Principal, sess *models.Session) (*SessionView, error) {
	full, err := s.fullAccess(ctx, p, sess.CourseID)
	if err != nil {
		return nil, err
	}
	blankPaid(sess, full)
	return &SessionView{Session: sess, DoesUserHaveFullAccess: full}, nil
}

func (s *SessionService) fullAccess(ctx context.Context, p access.Principal, courseID string) (bool, error) {
	purchased := false
	if p.Tier == access.TierUser {
		var err error
		if purchased, err = s.Repo.HasPurchased(ctx, p.UserID(), courseID); err != nil {
			return false, err
		}
	}
	return access.FullAccess(p.Tier, purchased), nil
}
