package service

import (
	"context"
	"math"

	"github.com/Skotchmaster/course_market/internal/access"
	"github.com/Skotchmaster/course_market/internal/events"
	"github.com/Skotchmaster/course_market/internal/models"
	"github.com/Skotchmaster/course_market/internal/repo"
	"github.com/Skotchmaster/course_market/internal/upload"
	"github.com/Skotchmaster/course_market/internal/util"
	"github.com/Skotchmaster/course_market/pkg/logging"
)

// DefaultRating is reported for courses nobody rated yet.
const DefaultRating = 5.0

type CourseSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Course, error)
}

type CourseIndexer interface {
	IndexCourse(ctx context.Context, c *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
}

type CatalogService struct {
	Repo    *repo.GormRepo
	Uploads upload.Issuer
	Search  CourseSearcher
	Index   CourseIndexer
	Events  events.Publisher
}

func (s *CatalogService) CreateCategory(ctx context.Context, name, href string) (*models.CourseCategory, error) {
	if err := s.categoryTaken(ctx, name, href, ""); err != nil {
		return nil, err
	}
	cat := &models.CourseCategory{Name: name, Href: href}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		if repo.IsDuplicate(err) {
			if terr := s.categoryTaken(ctx, name, href, ""); terr != nil {
				return nil, terr
			}
			return nil, conflict("Course category already exists")
		}
		return nil, err
	}
	logging.FromContext(ctx).Info("create_category_successful", "category", cat.ID)
	return cat, nil
}

func (s *CatalogService) EditCategory(ctx context.Context, id, name, href string) (*models.CourseCategory, error) {
	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course category not found")
		}
		return nil, err
	}
	if err := s.categoryTaken(ctx, name, href, id); err != nil {
		return nil, err
	}
	cat.Name, cat.Href = name, href
	if err := s.Repo.UpdateCategory(ctx, cat); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflict("Course category already exists")
		}
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.Repo.CountCoursesInCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return conflict("Course category has courses and cannot be deleted")
	}
	deleted, err := s.Repo.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound("Course category not found")
	}
	return nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]models.CourseCategory, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) categoryTaken(ctx context.Context, name, href, exceptID string) error {
	nameTaken, hrefTaken, err := s.Repo.CategoryTaken(ctx, name, href, exceptID)
	if err != nil {
		return err
	}
	if nameTaken {
		return conflict("Course category name is already taken")
	}
	if hrefTaken {
		return conflict("Course category href is already taken")
	}
	return nil
}

type NewCourse struct {
	Title       string
	CategoryID  string
	Description string
	CoverName   string
	Slug        string
	Price       float64
	Discount    float64
}

type CreatedCourse struct {
	Course    *models.Course `json:"course"`
	UploadURL string         `json:"uploadUrl"`
}

func (s *CatalogService) CreateCourse(ctx context.Context, teacher *models.User, in NewCourse) (*CreatedCourse, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_course", "slug", in.Slug)

	if _, err := s.Repo.GetCategory(ctx, in.CategoryID); err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Category not found")
		}
		return nil, err
	}
	taken, err := s.Repo.SlugTaken(ctx, in.Slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflict("Course slug is already taken")
	}

	ticket, err := s.Uploads.Issue(ctx, in.CoverName, "image")
	if err != nil {
		l.Error("create_course_failed", "status", 500, "reason", "cannot issue upload url", "error", err)
		return nil, err
	}

	c := &models.Course{
		Title:       in.Title,
		CategoryID:  in.CategoryID,
		TeacherID:   teacher.ID,
		Description: in.Description,
		Cover:       ticket.Key,
		Slug:        in.Slug,
		Price:       in.Price,
		Discount:    in.Discount,
	}
	if err := s.Repo.CreateCourse(ctx, c); err != nil {
		if repo.IsDuplicate(err) {
			return nil, conflict("Course slug is already taken")
		}
		return nil, err
	}

	if s.Index != nil {
		if err := s.Index.IndexCourse(ctx, c); err != nil {
			l.Error("course_index_failed", "course", c.ID, "error", err)
		}
	}
	publish(ctx, l, s.Events, events.TopicCourses, c.ID, events.New("course_created", c.ID, map[string]any{
		"slug":      c.Slug,
		"teacherId": c.TeacherID,
	}))
	l.Info("create_course_successful", "course", c.ID)
	return &CreatedCourse{Course: c, UploadURL: ticket.URL}, nil
}

// Purchase records that buyer owns the course. A second purchase is refused
// whether the pre-check or the unique index catches it.
func (s *CatalogService) Purchase(ctx context.Context, buyer *models.User, courseID string) (*models.UserCourse, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.purchase", "course", courseID)

	c, err := s.Repo.GetCourse(ctx, courseID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course not found")
		}
		return nil, err
	}
	owned, err := s.Repo.HasPurchased(ctx, buyer.ID, c.ID)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, conflict("You have already purchased this course")
	}

	p := &models.UserCourse{UserID: buyer.ID, CourseID: c.ID, Price: c.Price, Discount: c.Discount}
	if err := s.Repo.CreatePurchase(ctx, p); err != nil {
		if repo.IsDuplicate(err) {
			l.Warn("purchase_failed", "status", 400, "reason", "duplicate purchase")
			return nil, conflict("You have already purchased this course")
		}
		return nil, err
	}

	publish(ctx, l, s.Events, events.TopicCourses, c.ID, events.New("course_purchased", c.ID, map[string]any{
		"userId": buyer.ID,
		"price":  p.Price,
	}))
	l.Info("purchase_successful")
	return p, nil
}

// HasPurchased is false for anonymous callers.
func (s *CatalogService) HasPurchased(ctx context.Context, p access.Principal, courseID string) (bool, error) {
	if !p.Authenticated() {
		return false, nil
	}
	return s.Repo.HasPurchased(ctx, p.UserID(), courseID)
}

type CategoryCourses struct {
	Category *models.CourseCategory `json:"category"`
	Courses  []models.Course        `json:"courses"`
}

func (s *CatalogService) CoursesByCategory(ctx context.Context, categoryID string) (*CategoryCourses, error) {
	cat, err := s.Repo.GetCategory(ctx, categoryID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Category not found")
		}
		return nil, err
	}
	courses, err := s.Repo.CoursesByCategory(ctx, cat.ID)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return &CategoryCourses{Category: cat, Courses: courses}, nil
}

// PublicUser is an identity without contact details.
type PublicUser struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func publicUser(u *models.User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{ID: u.ID, Name: u.Name, Username: u.Username, Role: u.Role}
}

type CommentView struct {
	models.Comment
	Author  *PublicUser   `json:"author"`
	Replies []CommentView `json:"replies"`
}

type CourseDetails struct {
	Course                 *models.Course          `json:"course"`
	Category               *models.CourseCategory  `json:"category"`
	Teacher                *PublicUser             `json:"teacher"`
	Sessions               Listing[models.Session] `json:"sessions"`
	DoesUserHaveFullAccess bool                    `json:"doesUserHaveFullAccess"`
	TotalDuration          int                     `json:"totalDuration"`
	Comments               Listing[CommentView]    `json:"comments"`
	Ratings                Ratings                 `json:"ratings"`
	NumberOfStudents       int64                   `json:"numberOfStudents"`
}

type Listing[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

func listing[T any](items []T) Listing[T] {
	if items == nil {
		items = []T{}
	}
	return Listing[T]{Total: len(items), Data: items}
}

type Ratings struct {
	Average float64 `json:"average"`
	Total   int64   `json:"total"`
}

func (s *CatalogService) CourseDetails(ctx context.Context, p access.Principal, courseID string) (*CourseDetails, error) {
	c, err := s.Repo.GetCourse(ctx, courseID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course not found")
		}
		return nil, err
	}

	out := &CourseDetails{Course: c}

	if cat, err := s.Repo.GetCategory(ctx, c.CategoryID); err == nil {
		out.Category = cat
	} else if !repo.IsNotFound(err) {
		return nil, err
	}
	teacher, err := s.Repo.FindUser(ctx, c.TeacherID)
	if err != nil {
		return nil, err
	}
	out.Teacher = publicUser(teacher)

	purchased, err := s.HasPurchased(ctx, p, c.ID)
	if err != nil {
		return nil, err
	}
	out.DoesUserHaveFullAccess = access.FullAccess(p.Tier, purchased)

	sessions, err := s.Repo.SessionsByCourse(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		out.TotalDuration += sessions[i].Duration
		blankPaid(&sessions[i], out.DoesUserHaveFullAccess)
	}
	out.Sessions = listing(sessions)

	comments, err := s.commentViews(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out.Comments = listing(comments)

	sum, err := s.Repo.RatingSummary(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	out.Ratings = Ratings{Average: averageRating(sum), Total: sum.Total}

	if out.NumberOfStudents, err = s.Repo.CountPurchases(ctx, c.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func averageRating(sum repo.RatingSummary) float64 {
	if sum.Total == 0 {
		return DefaultRating
	}
	return math.Round(sum.Average*10) / 10
}

// blankPaid hides the video of a paid session from callers without full access.
func blankPaid(s *models.Session, full bool) {
	if !s.Free && !full {
		s.Video = ""
	}
}

func (s *CatalogService) commentViews(ctx context.Context, courseID string) ([]CommentView, error) {
	comments, replies, err := s.Repo.ApprovedComments(ctx, courseID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(comments)+len(replies))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	for _, r := range replies {
		ids = append(ids, r.UserID)
	}
	users, err := s.Repo.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	authors := make(map[string]*PublicUser, len(users))
	for i := range users {
		authors[users[i].ID] = publicUser(&users[i])
	}

	byParent := make(map[string][]CommentView)
	for _, r := range replies {
		if r.ReplyTo == nil {
			continue
		}
		byParent[*r.ReplyTo] = append(byParent[*r.ReplyTo], CommentView{Comment: r, Author: authors[r.UserID], Replies: []CommentView{}})
	}

	out := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		rs := byParent[c.ID]
		if rs == nil {
			rs = []CommentView{}
		}
		out = append(out, CommentView{Comment: c, Author: authors[c.UserID], Replies: rs})
	}
	return out, nil
}

func (s *CatalogService) RelatedCourses(ctx context.Context, courseID string, count int) ([]models.Course, error) {
	c, err := s.Repo.GetCourse(ctx, courseID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, notFound("Course not found")
		}
		return nil, err
	}
	related, err := s.Repo.RelatedCourses(ctx, c, count)
	if err != nil {
		return nil, err
	}
	if related == nil {
		related = []models.Course{}
	}
	return related, nil
}

func (s *CatalogService) SearchCourses(ctx context.Context, query string, page, size int) (util.Page[models.Course], error) {
	from, limit := util.Calculate(page, size)
	total, items, err := s.Search.Search(ctx, query, from, limit)
	if err != nil {
		return util.Page[models.Course]{}, err
	}
	return util.NewPage(items, page, limit, total), nil
}
