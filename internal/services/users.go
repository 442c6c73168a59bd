package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"the-arch-backend/internal/models"
	"the-arch-backend/internal/security"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const jwtExpDays = 30

// UserService handles accounts, authentication, and the dashboard
type UserService struct {
	userStore     UserStore
	archStore     ArchStore
	questionStore QuestionStore
	messageStore  MessageStore
	eventStore    EventStore
	argon         *security.ArgonHash
	jwtSecret     string
}

// NewUserService creates a new user service
func NewUserService(
	userStore UserStore,
	archStore ArchStore,
	questionStore QuestionStore,
	messageStore MessageStore,
	eventStore EventStore,
	jwtSecret string,
) *UserService {
	return &UserService{
		userStore:     userStore,
		archStore:     archStore,
		questionStore: questionStore,
		messageStore:  messageStore,
		eventStore:    eventStore,
		argon:         security.New(),
		jwtSecret:     jwtSecret,
	}
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}
	return userID, nil
}

// AuthResult is a user plus a freshly issued token
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and issues a token
func (s *UserService) Register(ctx context.Context, name, email, password, timezone string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < 8 {
		return nil, ErrPasswordTooShort
	}
	if timezone == "" {
		timezone = "America/New_York"
	} else if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone", ErrInvalidInput)
	}

	exists, err := s.userStore.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	hash, err := s.argon.GenerateFromPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &models.User{
		ID:            uuid.New().String(),
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		Timezone:      timezone,
		Notifications: models.DefaultNotificationSettings(),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.userStore.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Msg("User registered")
	return &AuthResult{User: user, Token: token}, nil
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.argon.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Get returns an active user
func (s *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// ProfileUpdate carries optional profile changes
type ProfileUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
	Timezone *string `json:"timezone"`
}

// UpdateProfile applies profile changes
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		user.Name = name
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if !strings.Contains(email, "@") {
			return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
		}
		if email != user.Email {
			exists, err := s.userStore.EmailExists(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("failed to check email: %w", err)
			}
			if exists {
				return nil, ErrEmailTaken
			}
			user.Email = email
		}
	}
	if upd.Avatar != nil {
		user.Avatar = upd.Avatar
	}
	if upd.Timezone != nil {
		if _, err := time.LoadLocation(*upd.Timezone); err != nil {
			return nil, fmt.Errorf("%w: unknown timezone", ErrInvalidInput)
		}
		user.Timezone = *upd.Timezone
	}
	user.UpdatedAt = time.Now()

	if err := s.userStore.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password before setting a new one
func (s *UserService) ChangePassword(ctx context.Context, userID, current, next string) error {
	if len(next) < 8 {
		return ErrPasswordTooShort
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := s.argon.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		return ErrBadCredentials
	}

	hash, err := s.argon.GenerateFromPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.userStore.UpdatePassword(ctx, userID, hash)
}

// UpdateNotificationSettings replaces the user's notification preferences
func (s *UserService) UpdateNotificationSettings(ctx context.Context, userID string, ns models.NotificationSettings) error {
	if err := s.userStore.UpdateNotificationSettings(ctx, userID, ns); err != nil {
		return fmt.Errorf("failed to update notification settings: %w", err)
	}
	return nil
}

// SetPushToken stores a device push token
func (s *UserService) SetPushToken(ctx context.Context, userID, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalidInput)
	}
	return s.userStore.UpdatePushToken(ctx, userID, &token)
}

// ClearPushToken removes the stored push token
func (s *UserService) ClearPushToken(ctx context.Context, userID string) error {
	return s.userStore.UpdatePushToken(ctx, userID, nil)
}

// Search finds members of an arch by name or email fragment
func (s *UserService) Search(ctx context.Context, userID, archID, query string) ([]models.User, error) {
	if _, err := membership(ctx, s.archStore, archID, userID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return s.userStore.SearchInArch(ctx, archID, query, 20)
}

// DeleteAccount soft-deletes the account: memberships are removed, the email
// is rewritten so it can be reused, and the push token is dropped.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	arches, err := s.archStore.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list arches: %w", err)
	}
	for _, arch := range arches {
		if arch.CreatorID == userID {
			if err := s.archStore.Deactivate(ctx, arch.ID); err != nil {
				log.Error().Err(err).Str("arch_id", arch.ID).Msg("Failed to deactivate arch on account deletion")
			}
			continue
		}
		if err := s.archStore.RemoveMember(ctx, arch.ID, userID); err != nil {
			log.Error().Err(err).Str("arch_id", arch.ID).Msg("Failed to remove membership on account deletion")
		}
	}

	rewritten := fmt.Sprintf("deleted_%d_%s", time.Now().Unix(), user.Email)
	if err := s.userStore.Deactivate(ctx, userID, rewritten); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	log.Info().Str("user_id", userID).Msg("Account deleted")
	return nil
}

// Dashboard aggregates the caller's day across all their arches
type Dashboard struct {
	PendingQuestions []QuestionToday      `json:"pending_questions"`
	UnreadMessages   int                  `json:"unread_messages"`
	UpcomingEvents   []models.GetTogether `json:"upcoming_events"`
	Arches           int                  `json:"arches"`
}

// GetDashboard builds the caller's dashboard summary
func (s *UserService) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dash := &Dashboard{
		PendingQuestions: []QuestionToday{},
		UpcomingEvents:   []models.GetTogether{},
	}

	questions, err := s.questionStore.ListForAskerOn(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's questions: %w", err)
	}
	for _, q := range questions {
		if q.Status(now) != models.QuestionPending {
			continue
		}
		dash.PendingQuestions = append(dash.PendingQuestions, QuestionToday{
			Question:         q,
			Status:           models.QuestionPending,
			MinutesRemaining: q.MinutesRemaining(now),
		})
	}

	arches, err := s.archStore.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list arches: %w", err)
	}
	dash.Arches = len(arches)

	archIDs := make([]string, 0, len(arches))
	for _, arch := range arches {
		archIDs = append(archIDs, arch.ID)
		stats, err := s.messageStore.Stats(ctx, arch.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to load message stats: %w", err)
		}
		dash.UnreadMessages += stats.TotalUnread
	}

	if len(archIDs) > 0 {
		events, err := s.eventStore.List(ctx, archIDs, "", &now)
		if err != nil {
			return nil, fmt.Errorf("failed to load upcoming events: %w", err)
		}
		if len(events) > 5 {
			events = events[:5]
		}
		dash.UpcomingEvents = events
	}

	return dash, nil
}
