package service

import (
	"context"

	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/moderation"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

type AdminService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Index  CourseIndexer
	// Observe, when set, sees the outcome of every moderation action.
	Observe func(action string, err error)
}

func (s *AdminService) observe(action string, err error) {
	if s.Observe != nil {
		s.Observe(action, err)
	}
}

// Ban moves the target to BANNED. The ban record and the flag are written in
// one transaction.
func (s *AdminService) Ban(ctx context.Context, operator *models.User, targetID, reason string) (rec *models.BannedUser, err error) {
	l := logging.FromContext(ctx).With("svc", "admin.ban", "target", targetID)
	defer func() { s.observe("ban", err) }()

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFound("User not found")
			}
			return err
		}
		if err := moderation.CheckBan(operator, target); err != nil {
			return err
		}

		rec = &models.BannedUser{UserID: target.ID, Reason: moderation.Reason(reason), BannedBy: operator.ID}
		if err := tx.CreateBan(ctx, rec); err != nil {
			if repo.IsDuplicate(err) {
				return moderation.ErrAlreadyBanned
			}
			return err
		}
		return tx.SetBanned(ctx, target.ID, true)
	})
	if err != nil {
		err = fromViolation(err)
		l.Warn("ban_user_failed", "error", err)
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicUsers, targetID, events.New("user_banned", targetID, map[string]any{
		"reason":   rec.Reason,
		"bannedBy": operator.ID,
	}))
	l.Info("ban_user_successful")
	return rec, nil
}

// Unban moves the target back to ACTIVE.
func (s *AdminService) Unban(ctx context.Context, operator *models.User, targetID string) (err error) {
	l := logging.FromContext(ctx).With("svc", "admin.unban", "target", targetID)
	defer func() { s.observe("unban", err) }()

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFound("User not found")
			}
			return err
		}
		if err := moderation.CheckUnban(target); err != nil {
			return err
		}
		if _, err := tx.DeleteBan(ctx, target.ID); err != nil {
			return err
		}
		return tx.SetBanned(ctx, target.ID, false)
	})
	if err != nil {
		err = fromViolation(err)
		l.Warn("unban_user_failed", "error", err)
		return err
	}

	publish(ctx, l, s.Events, events.TopicUsers, targetID, events.New("user_unbanned", targetID, map[string]any{
		"unbannedBy": operator.ID,
	}))
	l.Info("unban_user_successful")
	return nil
}

func (s *AdminService) Users(ctx context.Context, page, size int) (util.Page[models.User], error) {
	from, limit := util.Calculate(page, size)
	total, items, err := s.Repo.ListUsers(ctx, from, limit)
	if err != nil {
		return util.Page[models.User]{}, err
	}
	return util.NewPage(items, page, limit, total), nil
}

// UpdateRole changes the target's role. Operators cannot change their own
// role and the last admin cannot be demoted.
func (s *AdminService) UpdateRole(ctx context.Context, operator *models.User, targetID string, role models.Role) (updated *models.User, err error) {
	l := logging.FromContext(ctx).With("svc", "admin.update_role", "target", targetID, "role", role)
	defer func() { s.observe("update_role", err) }()

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFound("User not found")
			}
			return err
		}
		admins, err := tx.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if err := moderation.CheckRoleChange(operator, target, role, admins); err != nil {
			return err
		}
		if err := tx.SetRole(ctx, target.ID, role); err != nil {
			return err
		}
		target.Role = role
		updated = target
		return nil
	})
	if err != nil {
		err = fromViolation(err)
		l.Warn("update_role_failed", "error", err)
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicUsers, targetID, events.New("user_role_updated", targetID, map[string]any{
		"role":      role,
		"updatedBy": operator.ID,
	}))
	l.Info("update_role_successful")
	return updated, nil
}

// DeleteUser removes an identity. The last admin cannot be removed.
func (s *AdminService) DeleteUser(ctx context.Context, operator *models.User, targetID string) (err error) {
	l := logging.FromContext(ctx).With("svc", "admin.delete_user", "target", targetID)
	defer func() { s.observe("delete_user", err) }()

	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		target, err := tx.GetUser(ctx, targetID)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFound("User not found")
			}
			return err
		}
		admins, err := tx.CountAdmins(ctx)
		if err != nil {
			return err
		}
		if err := moderation.CheckRemoval(target, admins); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, target.ID)
	})
	if err != nil {
		err = fromViolation(err)
		l.Warn("delete_user_failed", "error", err)
		return err
	}

	publish(ctx, l, s.Events, events.TopicUsers, targetID, events.New("user_deleted", targetID, map[string]any{
		"deletedBy": operator.ID,
	}))
	l.Info("delete_user_successful")
	return nil
}

func (s *AdminService) DeleteCourse(ctx context.Context, courseID string) error {
	l := logging.FromContext(ctx).With("svc", "admin.delete_course", "course", courseID)

	var deleted int64
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		deleted, err = tx.DeleteCourse(ctx, courseID)
		return err
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound("Course not found")
	}

	if s.Index != nil {
		if err := s.Index.DeleteCourse(ctx, courseID); err != nil {
			l.Error("course_unindex_failed", "error", err)
		}
	}
	publish(ctx, l, s.Events, events.TopicCourses, courseID, events.New("course_deleted", courseID, nil))
	l.Info("delete_course_successful")
	return nil
}

func (s *AdminService) PendingComments(ctx context.Context, page, size int) (util.Page[models.Comment], error) {
	from, limit := util.Calculate(page, size)
	total, items, err := s.Repo.NotApprovedComments(ctx, from, limit)
	if err != nil {
		return util.Page[models.Comment]{}, err
	}
	return util.NewPage(items, page, limit, total), nil
}

func (s *AdminService) ApproveComment(ctx context.Context, commentID string) (*models.Comment, error) {
	c, err := s.Repo.GetComment(ctx, commentID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Comment not found")
		}
		return nil, err
	}
	if c.Approved {
		return nil, conflict("Comment is already approved")
	}
	if err := s.Repo.ApproveComment(ctx, c.ID); err != nil {
		return nil, err
	}
	c.Approved = true
	return c, nil
}

func (s *AdminService) DeleteComment(ctx context.Context, commentID string) error {
	var deleted int64
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		deleted, err = tx.DeleteComment(ctx, commentID)
		return err
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound("Comment not found")
	}
	return nil
}

// Reply posts an approved answer to a comment and approves the comment itself.
func (s *AdminService) Reply(ctx context.Context, operator *models.User, commentID, text string) (*models.Comment, error) {
	var reply *models.Comment
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		parent, err := tx.GetComment(ctx, commentID)
		if err != nil {
			if repo.IsNotFound(err) {
				return notFound("Comment not found")
			}
			return err
		}
		if !parent.Approved {
			if err := tx.ApproveComment(ctx, parent.ID); err != nil {
				return err
			}
		}
		reply = &models.Comment{
			UserID:    operator.ID,
			CourseID:  parent.CourseID,
			SessionID: parent.SessionID,
			Text:      text,
			Approved:  true,
			IsReply:   true,
			ReplyTo:   &parent.ID,
		}
		return tx.CreateComment(ctx, reply)
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}
