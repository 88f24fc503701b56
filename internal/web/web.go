// Package web serves the scoring form.
package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"github.com/spigell/hh-scorer/internal/headhunter"
	"github.com/spigell/hh-scorer/internal/scoring"
)

const (
	DefaultAddress = ":8080"

	contentTypeHTML = "text/html; charset=utf-8"
)

//go:embed templates/index.html
var templates embed.FS

var indexTemplate = template.Must(template.ParseFS(templates, "templates/index.html"))

// Runner scores a vacancy and resume pair.
type Runner interface {
	Run(ctx context.Context, jobURL, cvURL string) (*scoring.Result, error)
}

// Handler serves the form and scoring results.
type Handler struct {
	runner Runner
	logger *zap.Logger
}

func NewHandler(runner Runner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{runner: runner, logger: logger}
}

type view struct {
	Submitted bool
	JobURL    string
	CVURL     string
	Job       string
	Candidate string
	Error     string
	Result    string
	HasScore  bool
	Score     string
	Fit       bool
	RunID     string
}

// NewServer builds a hertz server listening on address with all routes registered.
func NewServer(address string, handler *Handler) *server.Hertz {
	if strings.TrimSpace(address) == "" {
		address = DefaultAddress
	}

	h := server.Default(server.WithHostPorts(address))
	RegisterRoutes(h, handler)

	return h
}

func RegisterRoutes(h *server.Hertz, handler *Handler) {
	h.GET("/", handler.Index)
	h.POST("/score", handler.Score)
	h.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}

func (h *Handler) Index(_ context.Context, ctx *app.RequestContext) {
	h.render(ctx, consts.StatusOK, view{})
}

func (h *Handler) Score(c context.Context, ctx *app.RequestContext) {
	v := view{
		Submitted: true,
		JobURL:    strings.TrimSpace(ctx.PostForm("job_url")),
		CVURL:     strings.TrimSpace(ctx.PostForm("cv_url")),
	}

	if v.JobURL == "" || v.CVURL == "" {
		v.Error = "both job description URL and CV URL are required"
		h.render(ctx, consts.StatusUnprocessableEntity, v)
		return
	}
	for _, u := range []string{v.JobURL, v.CVURL} {
		if err := headhunter.ValidateURL(u); err != nil {
			v.Error = fmt.Sprintf("%s: %v", u, err)
			h.render(ctx, consts.StatusUnprocessableEntity, v)
			return
		}
	}

	if h.runner == nil {
		v.Error = "scoring pipeline is not configured"
		h.render(ctx, consts.StatusInternalServerError, v)
		return
	}

	res, err := h.runner.Run(c, v.JobURL, v.CVURL)
	if res != nil {
		v.RunID = res.ID.String()
		v.Job = res.Job
		v.Candidate = res.Candidate
	}

	if err != nil {
		h.logger.Warn("scoring request failed",
			zap.String("job_url", v.JobURL),
			zap.String("cv_url", v.CVURL),
			zap.Error(err),
		)
		v.Error = err.Error()

		status := consts.StatusInternalServerError
		var fetchErr *scoring.FetchError
		if errors.As(err, &fetchErr) {
			status = consts.StatusBadGateway
		}
		h.render(ctx, status, v)
		return
	}

	v.Error = res.ScoreError
	if res.Assessment != nil {
		v.Result = res.Assessment.Text
		v.HasScore = res.Assessment.HasScore
		v.Score = strconv.FormatFloat(res.Assessment.Score, 'f', -1, 64)
		v.Fit = res.Assessment.Fit
	}

	h.render(ctx, consts.StatusOK, v)
}

func (h *Handler) render(ctx *app.RequestContext, status int, v view) {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, v); err != nil {
		h.logger.Error("rendering page", zap.Error(err))
		ctx.String(consts.StatusInternalServerError, "internal error")
		return
	}

	ctx.Data(status, contentTypeHTML, buf.Bytes())
}
