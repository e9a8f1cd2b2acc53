package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"codetech/internal/config"
	"codetech/internal/models"
	"codetech/internal/observability"
	contextutils "codetech/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceInterface defines the interface for user-related operations.
// This allows for easier mocking in tests.
type UserServiceInterface interface {
	CreateUser(ctx context.Context, email, password, name, role string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	EnsureAdminUserExists(ctx context.Context, email, password, name string) error
}

// UserService provides methods for user management.
type UserService struct {
	db          *sql.DB
	cfg         *config.Config
	leaderboard LeaderboardServiceInterface
	logger      *observability.Logger
}

// userSelectFields contains all user fields for SELECT queries
const userSelectFields = `id, email, hashed_password, name, role, created_at`

// NewUserServiceWithLogger creates a new UserService instance with logger.
// A non-nil leaderboard is invalidated whenever a new user gets progress rows.
func NewUserServiceWithLogger(db *sql.DB, cfg *config.Config, leaderboard LeaderboardServiceInterface, logger *observability.Logger) *UserService {
	return &UserService{
		db:          db,
		cfg:         cfg,
		leaderboard: leaderboard,
		logger:      logger,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Email, &user.HashedPassword, &user.Name, &user.Role, &user.CreatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

// getUserByQuery returns nil, nil when no row matches
func (s *UserService) getUserByQuery(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to load user")
	}
	return user, nil
}

// CreateUser hashes the password, inserts the user and initializes their
// progress rows in one transaction. A taken e-mail yields ErrEmailTaken.
func (s *UserService) CreateUser(ctx context.Context, email, password, name, role string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "create_user", attribute.String("user.role", role))
	defer observability.FinishSpan(span, &err)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, contextutils.ErrMissingRequired
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, contextutils.WithMessage(contextutils.ErrInvalidInput, "Invalid role")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to hash password")
	}

	var user *models.User
	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		created, err := scanUser(tx.QueryRowContext(ctx, `
			INSERT INTO users (email, hashed_password, name, role)
			VALUES ($1, $2, $3, $4)
			RETURNING `+userSelectFields, email, string(hash), name, role))
		if err != nil {
			if isDuplicateKeyError(err) {
				return contextutils.ErrEmailTaken
			}
			return contextutils.WrapError(err, "failed to insert user")
		}
		if err := initializeUserProgress(ctx, tx, created.ID); err != nil {
			return err
		}
		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	s.logger.Info(ctx, "User created", map[string]interface{}{
		"user_id": user.ID,
		"email":   contextutils.MaskEmail(user.Email),
		"role":    user.Role,
	})
	return user, nil
}

// GetUserByID retrieves a user by their ID. It returns nil, nil when the user does not exist.
func (s *UserService) GetUserByID(ctx context.Context, id int) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_id", attribute.Int("user.id", id))
	defer observability.FinishSpan(span, &err)

	return s.getUserByQuery(ctx, `SELECT `+userSelectFields+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail retrieves a user by e-mail, ignoring case. It returns nil, nil when the user does not exist.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "get_user_by_email")
	defer observability.FinishSpan(span, &err)

	return s.getUserByQuery(ctx, `SELECT `+userSelectFields+` FROM users WHERE LOWER(email) = LOWER($1)`, strings.TrimSpace(email))
}

// AuthenticateUser checks the password of the user with the given e-mail.
// Unknown users and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (result0 *models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "authenticate_user")
	defer observability.FinishSpan(span, &err)

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, contextutils.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, contextutils.ErrInvalidCredentials
	}

	span.SetAttributes(attribute.Int("user.id", user.ID))
	return user, nil
}

// ListUsers returns every user ordered by id
func (s *UserService) ListUsers(ctx context.Context) (result0 []models.User, err error) {
	ctx, span := observability.TraceUserFunction(ctx, "list_users")
	defer observability.FinishSpan(span, &err)

	rows, err := s.db.QueryContext(ctx, `SELECT `+userSelectFields+` FROM users ORDER BY id`)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to list users")
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to scan user")
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, contextutils.WrapError(err, "failed to iterate users")
	}

	span.SetAttributes(attribute.Int("users.count", len(users)))
	return users, nil
}

// EnsureAdminUserExists creates the seed admin if no user has that e-mail
func (s *UserService) EnsureAdminUserExists(ctx context.Context, email, password, name string) (err error) {
	ctx, span := observability.TraceUserFunction(ctx, "ensure_admin_user_exists")
	defer observability.FinishSpan(span, &err)

	if email == "" || password == "" {
		return contextutils.ErrorWithContextf("admin email and password cannot be empty")
	}

	existing, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		s.logger.Debug(ctx, "Admin user already exists", map[string]interface{}{"user_id": existing.ID})
		return nil
	}

	_, err = s.CreateUser(ctx, email, password, name, models.RoleAdmin)
	if errors.Is(err, contextutils.ErrEmailTaken) {
		// Another instance created it concurrently.
		return nil
	}
	return err
}
