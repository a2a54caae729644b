package site

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/user/illust-harvester/internal/entity"
	"github.com/user/illust-harvester/internal/extractor"
	"github.com/user/illust-harvester/internal/repository"
)

// Login signs in with creds. Any failure is wrapped in entity.ErrAuthentication.
func (d *Driver) Login(ctx context.Context, b repository.Browser, creds entity.Credentials) error {
	l := d.site.Layout

	if err := extractor.Navigate(ctx, b, d.site.LoginURL, d.timing.NavigationBound()); err != nil {
		return fmt.Errorf("%w: opening login page: %w", entity.ErrAuthentication, err)
	}
	for _, sel := range []string{l.UsernameInput, l.PasswordInput, l.LoginButton} {
		if err := b.WaitVisible(ctx, sel, d.timing.AnchorTimeout); err != nil {
			return fmt.Errorf("%w: waiting for %q: %w", entity.ErrAuthentication, sel, err)
		}
	}

	if err := b.Type(ctx, l.UsernameInput, creds.Username); err != nil {
		return fmt.Errorf("%w: entering username: %w", entity.ErrAuthentication, err)
	}
	if err := b.Type(ctx, l.PasswordInput, creds.Password); err != nil {
		return fmt.Errorf("%w: entering password: %w", entity.ErrAuthentication, err)
	}

	buttons, err := count(ctx, b, l.LoginButton)
	if err != nil {
		return fmt.Errorf("%w: reading login form: %w", entity.ErrAuthentication, err)
	}
	if buttons <= l.LoginButtonIndex {
		return fmt.Errorf("%w: expected at least %d submit buttons, found %d",
			entity.ErrAuthentication, l.LoginButtonIndex+1, buttons)
	}
	if err := b.ClickNth(ctx, l.LoginButton, l.LoginButtonIndex, ""); err != nil {
		return fmt.Errorf("%w: submitting login form: %w", entity.ErrAuthentication, err)
	}

	if err := b.WaitVisible(ctx, l.LoggedInAnchor, d.timing.AnchorTimeout); err != nil {
		return fmt.Errorf("%w: landing page never loaded: %w", entity.ErrAuthentication, err)
	}

	d.logger.Info("logged in", zap.String("username", creds.Username))
	return nil
}
