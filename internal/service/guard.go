package service

import (
	"accounts/internal/apperr"
	"accounts/internal/entity"
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

const bearerPrefix = "Bearer "

// ResolveCaller extracts the account id from an Authorization header.
// An empty header is an anonymous caller (ok=false, nil error); anything else
// that is not a valid "Bearer <session token>" yields an invalid_token error.
func (s *AccountService) ResolveCaller(header string) (uint, bool, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false, nil
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return 0, false, apperr.InvalidToken(errors.New("authorization header is not a bearer credential"))
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if token == "" {
		return 0, false, apperr.InvalidToken(errors.New("empty bearer token"))
	}

	claims, err := s.tokens.ParseSession(token)
	if err != nil {
		return 0, false, err
	}
	if claims.UserID == 0 {
		return 0, false, apperr.InvalidToken(errors.New("session token has no account"))
	}
	return claims.UserID, true, nil
}

// ListAllAccounts returns every account to an ADMIN caller and an empty list to
// anyone else, so the response does not reveal whether the caller lacked rights.
func (s *AccountService) ListAllAccounts(ctx context.Context, callerID uint, query *entity.UserQuery) (*entity.UserListResponse, error) {
	empty := &entity.UserListResponse{Users: []entity.UserSummary{}}
	if callerID == 0 {
		return empty, nil
	}

	caller, err := s.repo.GetUserByID(ctx, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return empty, nil
		}
		return nil, fmt.Errorf("lookup caller: %w", err)
	}
	// 以数据库中的角色为准，令牌中不携带角色
	if !caller.IsAdmin() {
		return empty, nil
	}

	users, meta, err := s.repo.ListUsers(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	summaries := make([]entity.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, entity.UserToSummary(&users[i]))
	}
	return &entity.UserListResponse{Users: summaries, Meta: meta}, nil
}
