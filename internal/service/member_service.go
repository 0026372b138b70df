package service

import (
	"alcyxob/fitness-log/internal/domain"
	"alcyxob/fitness-log/internal/repository"
	"alcyxob/fitness-log/internal/storage"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// SignupInput carries the fields of a new member.
type SignupInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
	ImageURL  string
	Bio       *string
	Location  *string
}

// MemberUpdate lists the profile fields to change. Nil fields are left as they are.
type MemberUpdate struct {
	Username  *string
	FirstName *string
	LastName  *string
	Email     *string
	ImageURL  *string // Empty resets to the default picture
	Bio       *string
	Location  *string
}

// --- Service Interface ---
type MemberService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.Member, error)
	// Authenticate reports whether username and password match a member.
	// Unknown usernames and wrong passwords look the same; err is only set for store failures.
	Authenticate(ctx context.Context, username, password string) (*domain.Member, bool, error)
	Edit(ctx context.Context, member *domain.Member, upd MemberUpdate, currentPassword string) (*domain.Member, error)
	Delete(ctx context.Context, member *domain.Member) error
	Get(ctx context.Context, id string) (*domain.Member, error)
	RequestAvatarUpload(ctx context.Context, member *domain.Member, contentType string) (*domain.AvatarUpload, error)
}

// --- Service Implementation ---

// memberService implements the MemberService interface.
type memberService struct {
	memberRepo repository.MemberRepository
	files      storage.FileStorage // nil when uploads are disabled
	bcryptCost int
	log        *logrus.Logger
}

// NewMemberService creates a new instance of memberService. files may be nil.
func NewMemberService(memberRepo repository.MemberRepository, files storage.FileStorage, bcryptCost int, log *logrus.Logger) MemberService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &memberService{
		memberRepo: memberRepo,
		files:      files,
		bcryptCost: bcryptCost,
		log:        log,
	}
}

// Signup validates and stores a new member. Username and email uniqueness is
// left to the store's constraints so concurrent signups cannot both succeed.
func (s *memberService) Signup(ctx context.Context, in SignupInput) (*domain.Member, error) {
	if in.Password == "" {
		return nil, ErrInvalidCredential
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.Username == "" || in.Email == "" || in.FirstName == "" || in.LastName == "" {
		return nil, fmt.Errorf("%w: username, email, first and last name are required", ErrValidationFailed)
	}

	hash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	member := &domain.Member{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		ImageURL:     imageOrDefault(in.ImageURL),
		Bio:          in.Bio,
		Location:     in.Location,
		PasswordHash: hash,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUniquenessViolation
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"member_id": member.ID, "username": member.Username}).Info("Member signed up")
	return member, nil
}

func (s *memberService) Authenticate(ctx context.Context, username, password string) (*domain.Member, bool, error) {
	// Signup stores the trimmed username.
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, false, nil
	}
	member, err := s.memberRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(member.PasswordHash), []byte(password)); err != nil {
		return nil, false, nil
	}
	return member, true, nil
}

// Edit re-checks the member's current password before applying the update.
func (s *memberService) Edit(ctx context.Context, member *domain.Member, upd MemberUpdate, currentPassword string) (*domain.Member, error) {
	current, ok, err := s.Authenticate(ctx, member.Username, currentPassword)
	if err != nil {
		return nil, err
	}
	if !ok || current.ID != member.ID {
		return nil, ErrUnauthorized
	}

	updated := *current
	if upd.Username != nil {
		updated.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.FirstName != nil {
		updated.FirstName = strings.TrimSpace(*upd.FirstName)
	}
	if upd.LastName != nil {
		updated.LastName = strings.TrimSpace(*upd.LastName)
	}
	if upd.Email != nil {
		updated.Email = normalizeEmail(*upd.Email)
	}
	if upd.ImageURL != nil {
		updated.ImageURL = imageOrDefault(*upd.ImageURL)
	}
	if upd.Bio != nil {
		updated.Bio = optional(*upd.Bio)
	}
	if upd.Location != nil {
		updated.Location = optional(*upd.Location)
	}
	if updated.Username == "" || updated.Email == "" || updated.FirstName == "" || updated.LastName == "" {
		return nil, fmt.Errorf("%w: username, email, first and last name cannot be empty", ErrValidationFailed)
	}

	if err := s.memberRepo.Update(ctx, &updated); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrUniquenessViolation
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	// The old avatar is only ours to clean up once the profile points elsewhere.
	if current.ImageURL != updated.ImageURL {
		s.deleteAvatar(ctx, current)
	}
	return &updated, nil
}

// Delete removes the member with its workouts. Exercises stay.
func (s *memberService) Delete(ctx context.Context, member *domain.Member) error {
	if err := s.memberRepo.Delete(ctx, member.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.deleteAvatar(ctx, member)
	s.log.WithField("member_id", member.ID).Info("Member deleted")
	return nil
}

func (s *memberService) Get(ctx context.Context, id string) (*domain.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return member, nil
}

// RequestAvatarUpload returns a presigned PUT URL for a new profile picture.
func (s *memberService) RequestAvatarUpload(ctx context.Context, member *domain.Member, contentType string) (*domain.AvatarUpload, error) {
	if s.files == nil {
		return nil, ErrStorageDisabled
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: content type must be an image", ErrValidationFailed)
	}

	key := fmt.Sprintf("avatars/%s/%s", member.ID, uuid.NewString())
	expires := storage.DefaultPresignedURLExpiry
	uploadURL, err := s.files.GeneratePresignedUploadURL(ctx, key, contentType, expires)
	if err != nil {
		return nil, err
	}
	return &domain.AvatarUpload{
		UploadURL:   uploadURL,
		ImageURL:    s.files.ObjectURL(key),
		ObjectKey:   key,
		ContentType: contentType,
		ExpiresAt:   time.Now().UTC().Add(expires),
	}, nil
}

// deleteAvatar removes the member's picture from our bucket, if it lives there.
// Failures are logged; the member operation has already succeeded.
func (s *memberService) deleteAvatar(ctx context.Context, member *domain.Member) {
	if s.files == nil {
		return
	}
	key, ok := s.files.KeyFromURL(member.ImageURL)
	if !ok {
		return
	}
	if err := s.files.DeleteObject(ctx, key); err != nil {
		s.log.WithError(err).WithField("member_id", member.ID).Warn("Failed to delete avatar object")
	}
}

func (s *memberService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password too long", ErrInvalidCredential)
		}
		return "", ErrHashingFailed
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// optional maps an empty string to nil so clearing a field removes it.
func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func imageOrDefault(url string) string {
	if strings.TrimSpace(url) == "" {
		return domain.DefaultImageURL
	}
	return url
}
