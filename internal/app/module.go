package app

import (
	"github.com/shandysiswandi/mindjournal/internal/auth"
	"github.com/shandysiswandi/mindjournal/internal/notification"
)

func (a *App) initModules() error {
	a.router.GET(healthPath, a.health)

	if err := auth.New(auth.Dependency{
		DBConn:      a.dbConn,
		Denylist:    a.denylist,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Idempotency: a.idemp,
		Messaging:   a.messaging,
		Mail:        a.mail,
		Config:      a.config,
		Instrument:  a.ins,
		UID:         a.uid,
		Bcrypt:      a.bcrypt,
		Clock:       a.clock,
		OTP:         a.otp,
		Validator:   a.validator,
		JWT:         a.jwt,
	}); err != nil {
		return err
	}

	return notification.New(notification.Dependency{
		Ctx:        a.ctx,
		DBConn:     a.dbConn,
		Messaging:  a.messaging,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		UUID:       a.uuid,
		Clock:      a.clock,
		Goroutine:  a.goroutine,
		Validator:  a.validator,
		Router:     a.router,
		Mail:       a.mail,
	})
}
