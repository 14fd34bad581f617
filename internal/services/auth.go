package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	userrepos "github.com/yungbote/quizdesk-backend/internal/data/repos/user"
	types "github.com/yungbote/quizdesk-backend/internal/domain"
	"github.com/yungbote/quizdesk-backend/internal/platform/apierr"
	"github.com/yungbote/quizdesk-backend/internal/platform/ctxutil"
	"github.com/yungbote/quizdesk-backend/internal/platform/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("invalid email or password"))
	ErrInvalidToken       = apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("invalid or expired token"))
	ErrEmailTaken         = apierr.New(http.StatusConflict, "email_taken", errors.New("email already registered"))
)

type JWTClaims struct {
	IsAdmin bool `json:"is_admin"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// AuthService issues short-lived JWT access tokens and opaque refresh
// tokens. Refresh tokens are stored hashed; the raw value exists only in
// the response that minted it.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	// IssueFor mints a token pair for an already-authenticated user, used
	// when the chat transport has verified the caller itself.
	IssueFor(ctx context.Context, user *types.User) (*TokenPair, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      userrepos.UserRepo
	userTokenRepo userrepos.UserTokenRepo
	jwtSecretKey  []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo userrepos.UserRepo,
	userTokenRepo userrepos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           baseLog.With("service", "AuthService"),
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  []byte(jwtSecretKey),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, email, password string) (*types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || len(password) < 8 {
		return nil, apierr.New(http.StatusBadRequest, "invalid_registration", errors.New("email and a password of at least 8 characters are required"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var out *types.User
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.userRepo.GetByEmail(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		created, err := as.userRepo.Create(ctx, tx, &types.User{
			ID:       uuid.New(),
			Email:    email,
			Password: string(hashed),
			IsActive: true,
		})
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	as.log.Info("user registered", "user_id", out.ID, "email", email)
	return out, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return as.IssueFor(ctx, user)
}

func (as *authService) IssueFor(ctx context.Context, user *types.User) (*TokenPair, error) {
	accessToken, err := as.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()
	txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := as.userTokenRepo.RevokeByUserID(ctx, tx, user.ID); err != nil {
			return err
		}
		_, err := as.userTokenRepo.Create(ctx, tx, &types.UserToken{
			ID:        uuid.New(),
			UserID:    user.ID,
			TokenHash: hashToken(refreshToken),
			ExpiresAt: time.Now().UTC().Add(as.refreshTTL),
		})
		return err
	})
	if txErr != nil {
		return nil, txErr
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(as.accessTTL.Seconds()),
	}, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := as.userTokenRepo.GetByHash(ctx, nil, hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.ExpiresAt.Before(time.Now().UTC()) {
		return nil, ErrInvalidToken
	}
	user, err := as.userRepo.GetByID(ctx, nil, stored.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidToken
	}
	return as.IssueFor(ctx, user)
}

func (as *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return as.userTokenRepo.RevokeByUserID(ctx, nil, userID)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return as.jwtSecretKey, nil
	})
	if err != nil {
		return ctx, ErrInvalidToken
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, ErrInvalidToken
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		UserID:  userID,
		IsAdmin: claims.IsAdmin,
	}), nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now().UTC()
	claims := JWTClaims{
		IsAdmin: user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecretKey)
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
