package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PYTHAGON2/cdcfib-mock-test/internal/export"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/models"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/quiz"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/repository"
	"github.com/PYTHAGON2/cdcfib-mock-test/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"
)

const maxUploadBytes = 5 << 20

type AdminHandler struct {
	log        *zap.Logger
	catalog    QuizCatalog
	attempts   AttemptLog
	thresholds func() quiz.Thresholds
}

func NewAdminHandler(log *zap.Logger, catalog QuizCatalog, attempts AttemptLog, thresholds func() quiz.Thresholds) *AdminHandler {
	return &AdminHandler{log: log, catalog: catalog, attempts: attempts, thresholds: thresholds}
}

// Upload adds a JSON array of quizzes to the catalog, either as the "file"
// field of a multipart form or as the raw request body. The batch is all or
// nothing.
func (h *AdminHandler) Upload(c *gin.Context) {
	data, err := uploadBody(c)
	if err != nil {
		h.log.Warn("Failed to read upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JSON file."})
		return
	}

	quizzes, err := services.ParseUpload(data, time.Now().UTC())
	switch {
	case errors.Is(err, services.ErrUploadMalformed):
		h.log.Warn("Rejected quiz upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format. Expected an array of quizzes."})
		return
	case err != nil:
		h.log.Warn("Failed to parse quiz upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse JSON file."})
		return
	}

	if err := h.catalog.Add(c.Request.Context(), quizzes); err != nil {
		respondError(c, h.log, err)
		return
	}

	ids := make([]string, len(quizzes))
	for i, q := range quizzes {
		ids[i] = q.ID
	}
	h.log.Info("Quizzes uploaded", zap.Strings("quiz_ids", ids))
	c.JSON(http.StatusCreated, gin.H{"added": len(quizzes), "ids": ids})
}

func uploadBody(c *gin.Context) ([]byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			return nil, err
		}
		if fh.Size > maxUploadBytes {
			return nil, fmt.Errorf("upload of %d bytes exceeds limit", fh.Size)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes))
}

// Delete removes a quiz and its attempts. keep_attempts=true keeps them.
func (h *AdminHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.catalog.Remove(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	var removed int64
	if keep, _ := strconv.ParseBool(c.Query("keep_attempts")); !keep {
		n, err := h.attempts.DeleteByQuiz(c.Request.Context(), id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		removed = n
	}

	h.log.Info("Quiz removed", zap.String("quiz_id", id), zap.Int64("attempts_removed", removed))
	c.JSON(http.StatusOK, gin.H{"deleted": id, "attemptsRemoved": removed})
}

func (h *AdminHandler) Attempts(c *gin.Context) {
	attempts, err := h.attempts.FilterByQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (h *AdminHandler) AttemptsXLSX(c *gin.Context) {
	id := c.Param("id")
	attempts, err := h.attempts.FilterByQuiz(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	title := h.quizTitle(c, id, attempts)
	var buf bytes.Buffer
	if err := export.WriteAttemptsXLSX(&buf, title, attempts); err != nil {
		respondError(c, h.log, err)
		return
	}
	attachment(c, fmt.Sprintf("attempts-%s.xlsx", id))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// Chart returns the score summary of a quiz with echarts options for its
// score distribution and its scores over time.
func (h *AdminHandler) Chart(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	attempts, err := h.attempts.FilterByQuiz(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	stats, err := h.attempts.Stats(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	timeline, err := h.attempts.ScoreTimeline(ctx, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	title := h.quizTitle(c, id, attempts)
	c.JSON(http.StatusOK, gin.H{
		"stats":        stats,
		"distribution": scoreDistributionChart(title, attempts).JSON(),
		"timeline":     scoreTimelineChart(title, timeline).JSON(),
	})
}

func (h *AdminHandler) Suspicious(c *gin.Context) {
	attempts, err := h.attempts.List(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, quiz.DetectSuspicious(attempts, h.thresholds()))
}

// quizTitle prefers the catalog title and falls back to the snapshot on the
// attempts, which outlives a removed quiz.
func (h *AdminHandler) quizTitle(c *gin.Context, id string, attempts []models.QuizAttempt) string {
	q, err := h.catalog.Get(c.Request.Context(), id)
	if err == nil {
		return q.Title
	}
	if !errors.Is(err, repository.ErrQuizNotFound) {
		h.log.Warn("Quiz lookup failed", zap.String("quiz_id", id), zap.Error(err))
	}
	if len(attempts) > 0 {
		return attempts[0].QuizTitle
	}
	return id
}

// ScoreBuckets counts scores into ten bands: 0-9, 10-19 ... 90-100.
func ScoreBuckets(attempts []models.QuizAttempt) [10]int {
	var buckets [10]int
	for _, a := range attempts {
		i := a.Score / 10
		if i > 9 {
			i = 9
		}
		if i < 0 {
			i = 0
		}
		buckets[i]++
	}
	return buckets
}

func scoreDistributionChart(title string, attempts []models.QuizAttempt) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Score Distribution",
			Subtitle: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Score (%)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Attempts", MinInterval: 1}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
	)

	labels := make([]string, 10)
	items := make([]opts.BarData, 0, 10)
	for i, n := range ScoreBuckets(attempts) {
		hi := i*10 + 9
		if i == 9 {
			hi = 100
		}
		labels[i] = fmt.Sprintf("%d-%d", i*10, hi)
		items = append(items, opts.BarData{Value: n})
	}

	bar.SetXAxis(labels).AddSeries("Attempts", items)
	bar.Validate()
	return bar
}

func scoreTimelineChart(title string, data []repository.TimelineDataPoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Scores Over Time",
			Subtitle: title,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Min:  0,
			Max:  100,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)

	// Data points are [date, score] pairs.
	items := make([]opts.LineData, 0, len(data))
	for _, point := range data {
		items = append(items, opts.LineData{Value: []interface{}{point.Date, point.Value}})
	}

	line.AddSeries("Score", items, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	line.Validate()
	return line
}
