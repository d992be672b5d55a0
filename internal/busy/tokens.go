/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package busy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/friendsincode/slotwise/internal/models"
)

// ErrNoToken is returned when the host never granted calendar access.
var ErrNoToken = errors.New("no calendar token for host")

// GoogleOAuthConfig builds the OAuth client used to refresh stored tokens.
// It returns nil unless both client id and secret are set.
func GoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsReadonlyScope},
	}
}

// TokenStore keeps per-host calendar tokens in the database.
type TokenStore struct {
	db     *gorm.DB
	oauth  *oauth2.Config
	logger zerolog.Logger
}

// NewTokenStore creates a token store. With a nil oauth config stored tokens
// are used as-is and never refreshed.
func NewTokenStore(db *gorm.DB, oauth *oauth2.Config, logger zerolog.Logger) *TokenStore {
	return &TokenStore{
		db:     db,
		oauth:  oauth,
		logger: logger.With().Str("component", "calendar_tokens").Logger(),
	}
}

// Get loads the stored token for host.
func (s *TokenStore) Get(ctx context.Context, hostID string) (*oauth2.Token, error) {
	var row models.CalendarToken
	err := s.db.WithContext(ctx).Where("host_id = ?", hostID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("load calendar token: %w", err)
	}

	tok := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
	}
	if row.Expiry != nil {
		tok.Expiry = *row.Expiry
	}
	return tok, nil
}

// Put upserts the token for host.
func (s *TokenStore) Put(ctx context.Context, hostID string, tok *oauth2.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return fmt.Errorf("access token is required")
	}
	row := models.CalendarToken{
		HostID:       hostID,
		Provider:     "google",
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		row.Expiry = &exp
	}

	updates := []string{"access_token", "token_type", "expiry", "updated_at"}
	if tok.RefreshToken != "" {
		updates = append(updates, "refresh_token")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "host_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&row).Error
}

// TokenSource returns a source for host's token. Refreshed tokens are written
// back to the store.
func (s *TokenStore) TokenSource(ctx context.Context, hostID string) (oauth2.TokenSource, error) {
	tok, err := s.Get(ctx, hostID)
	if err != nil {
		return nil, err
	}
	if s.oauth == nil || tok.RefreshToken == "" {
		return oauth2.StaticTokenSource(tok), nil
	}
	return oauth2.ReuseTokenSource(tok, &persistingSource{
		ctx:    ctx,
		hostID: hostID,
		base:   s.oauth.TokenSource(ctx, tok),
		store:  s,
		last:   tok.AccessToken,
	}), nil
}

// persistingSource saves tokens that differ from the one it was built with.
type persistingSource struct {
	ctx    context.Context
	hostID string
	base   oauth2.TokenSource
	store  *TokenStore
	last   string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != p.last {
		p.last = tok.AccessToken
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(p.ctx), 5*time.Second)
		defer cancel()
		if err := p.store.Put(saveCtx, p.hostID, tok); err != nil {
			p.store.logger.Warn().Err(err).Str("host_id", p.hostID).Msg("persist refreshed token")
		} else {
			p.store.logger.Debug().Str("host_id", p.hostID).Msg("calendar token refreshed")
		}
	}
	return tok, nil
}
