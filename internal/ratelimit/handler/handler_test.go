package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"aigateway/internal/ratelimit/models"
	"aigateway/internal/ratelimit/service"
	"aigateway/internal/ratelimit/store/memory"
	dErrors "aigateway/pkg/domain-errors"
	"aigateway/pkg/platform/audit"
	auditmemory "aigateway/pkg/platform/audit/memory"
	"aigateway/pkg/platform/middleware/admin"
	"aigateway/pkg/testutil"
)

const adminToken = "ops-token"

type AdminHandlerSuite struct {
	suite.Suite
	ctx      context.Context
	limiter  *service.Service
	recorder *auditmemory.Recorder
	router   http.Handler
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	s.ctx = context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter, err := service.New(memory.New(), service.WithLogger(logger))
	s.Require().NoError(err)
	s.limiter = limiter
	s.recorder = auditmemory.NewRecorder()

	r := chi.NewRouter()
	New(limiter, s.recorder, logger).Register(r, admin.RequireAdminToken(adminToken, logger))
	s.router = r
}

func (s *AdminHandlerSuite) adminPost(path string, body any) *http.Request {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, body)
	req.Header.Set(admin.HeaderAdminToken, adminToken)
	return req
}

func (s *AdminHandlerSuite) TestResetRestoresBurstAllowance() {
	subject := models.NewSubject("u-1", "")
	for range 5 {
		_, err := s.limiter.Check(s.ctx, subject)
		s.Require().NoError(err)
	}
	decision, err := s.limiter.Check(s.ctx, subject)
	s.Require().NoError(err)
	s.Require().False(decision.Allowed)

	rr := testutil.DoRequest(s.router, s.adminPost("/admin/ratelimit/reset", SubjectRequest{UserID: "u-1"}))

	s.Equal(http.StatusOK, rr.Code, rr.Body.String())
	got := testutil.DecodeData[resetResponse](s.T(), rr)
	s.Equal(subject, got.Subject)
	s.Equal(0, got.Usage.Burst.Used)
	s.Equal(0, got.Usage.Quota.Used)

	decision, err = s.limiter.Check(s.ctx, subject)
	s.Require().NoError(err)
	s.True(decision.Allowed)

	events := s.recorder.ByAction(audit.EventRateLimitReset)
	s.Require().Len(events, 1)
	s.Equal(subject, events[0].Subject)
}

func (s *AdminHandlerSuite) TestUsageByIP() {
	_, err := s.limiter.Check(s.ctx, models.NewSubject("", "203.0.113.5"))
	s.Require().NoError(err)

	rr := testutil.DoRequest(s.router, s.adminPost("/admin/ratelimit/usage", SubjectRequest{IP: "203.0.113.5"}))

	got := testutil.DecodeData[resetResponse](s.T(), rr)
	s.Equal("ip:203.0.113.5", got.Subject)
	s.Equal(1, got.Usage.Burst.Used)
}

func (s *AdminHandlerSuite) TestRequiresSubject() {
	rr := testutil.DoRequest(s.router, s.adminPost("/admin/ratelimit/reset", map[string]string{}))
	testutil.AssertFailure(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
}

func (s *AdminHandlerSuite) TestRequiresAdminToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/ratelimit/reset", SubjectRequest{UserID: "u-1"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertFailure(s.T(), rr, http.StatusUnauthorized, admin.CodeAdminToken)
	s.Empty(s.recorder.Events())
}
