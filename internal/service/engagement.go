package service

import (
	"context"

	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type EngagementService struct {
	Repo *repo.GormRepo
}

type NewComment struct {
	CourseID  string
	SessionID string
	Text      string
	IsReply   bool
	ReplyTo   string
}

// Comment stores a comment or a reply. Both wait for approval.
func (s *EngagementService) Comment(ctx context.Context, author *models.User, in NewComment) (*models.Comment, error) {
	l := logging.FromContext(ctx).With("svc", "engagement.comment", "course", in.CourseID)

	if _, err := s.Repo.GetCourse(ctx, in.CourseID); err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course not found")
		}
		return nil, err
	}
	sess, err := s.Repo.GetSession(ctx, in.SessionID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Session not found")
		}
		return nil, err
	}
	if sess.CourseID != in.CourseID {
		return nil, notFound("Session not found")
	}

	c := &models.Comment{
		UserID:    author.ID,
		CourseID:  in.CourseID,
		SessionID: in.SessionID,
		Text:      in.Text,
	}
	if in.IsReply {
		parent, err := s.Repo.GetComment(ctx, in.ReplyTo)
		if err != nil {
			if repo.IsNotFound(err) {
				return nil, notFound("Reply to comment not found")
			}
			return nil, err
		}
		c.IsReply = true
		c.ReplyTo = &parent.ID
	}

	if err := s.Repo.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	l.Info("create_comment_successful", "comment", c.ID, "reply", c.IsReply)
	return c, nil
}

func (s *EngagementService) Rate(ctx context.Context, rater *models.User, courseID string, rating int) (*models.CourseRating, error) {
	if _, err := s.Repo.GetCourse(ctx, courseID); err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course not found")
		}
		return nil, err
	}
	rated, err := s.Repo.HasRated(ctx, rater.ID, courseID)
	if err != nil {
		return nil, err
	}
	if rated {
		return nil, conflict("You have already rated this course")
	}

	r := &models.CourseRating{UserID: rater.ID, CourseID: courseID, Rating: rating}
	if err := s.Repo.CreateRating(ctx, r); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflict("You have already rated this course")
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("create_rating_successful", "course", courseID, "rating", rating)
	return r, nil
}
