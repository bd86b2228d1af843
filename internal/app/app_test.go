package app

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ApplicationSuite struct {
	suite.Suite
	app *Application
}

func TestApplication(t *testing.T) {
	suite.Run(t, &ApplicationSuite{})
}

func (s *ApplicationSuite) SetupTest() {
	s.app = New()
}

func (s *ApplicationSuite) TestWait() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.errCh = make(chan error)
	s.app.wg.Add(1)
	go func() {
		defer s.app.wg.Done()
		s.app.errCh <- fmt.Errorf("mock error")
	}()

	err := s.app.Wait(ctx, cancel)

	s.Require().Error(err)
	s.Contains(err.Error(), "mock error")
}

func (s *ApplicationSuite) TestWait_GracefulShutdown() {
	ctx, cancel := context.WithCancel(context.Background())

	s.app.wg.Add(1)
	go func() {
		defer s.app.wg.Done()
		<-ctx.Done()
	}()
	cancel()

	s.NoError(s.app.Wait(ctx, cancel))
}

func (s *ApplicationSuite) TestStart_BadLogLevel() {
	s.T().Setenv("LOG_LVL", "chatty")

	err := s.app.Start(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "can't init logger")
}
