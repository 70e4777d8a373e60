// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hika3390/jquants-backtest/internal/api/job"
	"github.com/hika3390/jquants-backtest/internal/api/response"
	"github.com/hika3390/jquants-backtest/internal/backtest"
	"github.com/hika3390/jquants-backtest/internal/condition"
	"github.com/hika3390/jquants-backtest/internal/core"
	"github.com/hika3390/jquants-backtest/internal/metrics"
	"github.com/hika3390/jquants-backtest/internal/storage/archive"
	"github.com/hika3390/jquants-backtest/internal/storage/result"
)

const runTimeout = 5 * time.Minute

// QuoteProvider fetches daily quotes for a stock code.
type QuoteProvider interface {
	DailyQuotes(ctx context.Context, code string, from, to time.Time) ([]core.Quote, error)
}

// RunRequest is the request body for starting a backtest.
type RunRequest struct {
	Name        string  `json:"name"`
	Code        string  `json:"code"`
	From        string  `json:"from"`
	To          string  `json:"to"`
	InitialCash float64 `json:"initial_cash"`
	MaxPosition float64 `json:"max_position"`
	Async       bool    `json:"async"`

	Buy        condition.Group `json:"buy"`
	Sell       condition.Group `json:"sell"`
	TakeProfit condition.Group `json:"take_profit"`
	StopLoss   condition.Group `json:"stop_loss"`
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	provider QuoteProvider
	results  result.Store
	archiver *archive.Archiver // optional
	jobs     *job.Store
	metrics  *metrics.Registry
	logger   *zap.Logger
}

// NewBacktestHandler creates a new backtest handler. archiver may be nil.
func NewBacktestHandler(
	provider QuoteProvider,
	results result.Store,
	archiver *archive.Archiver,
	jobs *job.Store,
	reg *metrics.Registry,
	logger *zap.Logger,
) *BacktestHandler {
	return &BacktestHandler{
		provider: provider,
		results:  results,
		archiver: archiver,
		jobs:     jobs,
		metrics:  reg,
		logger:   logger,
	}
}

// userID returns the caller identity, defaulting when the header is absent.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "default"
}

// Run starts a backtest. Synchronous by default; with async set it
// returns a job ID immediately.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	from, to, err := req.validate()
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	user := userID(r)

	if req.Async {
		j := h.jobs.Create("backtest")
		jobID := j.ID
		status := j.Status

		go h.runJob(jobID, user, req, from, to)

		response.JSON(w, http.StatusAccepted, map[string]any{
			"job_id": jobID,
			"status": status,
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), runTimeout)
	defer cancel()

	rec, err := h.execute(ctx, user, req, from, to)
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

func (req *RunRequest) validate() (from, to time.Time, err error) {
	if req.Code == "" {
		return from, to, core.WrapError(core.ErrConfigMissing,
			errors.New("code is required"))
	}
	from, err = time.Parse("2006-01-02", req.From)
	if err != nil {
		return from, to, core.WrapError(core.ErrConfigInvalid, err)
	}
	to, err = time.Parse("2006-01-02", req.To)
	if err != nil {
		return from, to, core.WrapError(core.ErrConfigInvalid, err)
	}
	if to.Before(from) {
		return from, to, core.WrapError(core.ErrConfigInvalid,
			errors.New("to date before from date"))
	}
	return from, to, nil
}

// execute fetches quotes, runs the simulation, and persists the record.
func (h *BacktestHandler) execute(ctx context.Context, user string, req RunRequest, from, to time.Time) (*result.Record, error) {
	start := time.Now()

	quotes, err := h.provider.DailyQuotes(ctx, req.Code, from, to)
	if err != nil {
		h.metrics.RecordBacktest("error", time.Since(start).Seconds(), 0)
		return nil, err
	}

	bt, err := backtest.New(quotes, backtest.Params{
		InitialCash: req.InitialCash,
		MaxPosition: req.MaxPosition,
		Buy:         req.Buy,
		Sell:        req.Sell,
		TakeProfit:  req.TakeProfit,
		StopLoss:    req.StopLoss,
	})
	if err != nil {
		h.metrics.RecordBacktest("error", time.Since(start).Seconds(), 0)
		return nil, err
	}

	res := bt.Run()

	rec := &result.Record{
		UserID:   user,
		Name:     req.Name,
		Code:     req.Code,
		FromDate: from,
		ToDate:   to,
		Result:   res,
	}
	if err := h.results.Save(ctx, rec); err != nil {
		h.metrics.RecordBacktest("error", time.Since(start).Seconds(), 0)
		return nil, err
	}

	if h.archiver != nil {
		// Archival is best-effort; the run already succeeded.
		if err := h.archiver.Archive(ctx, rec); err != nil {
			h.logger.Warn("archiving result failed",
				zap.String("id", rec.ID), zap.Error(err))
		}
	}

	h.metrics.RecordBacktest("success", time.Since(start).Seconds(), res.TotalTrades())
	h.logger.Info("backtest complete",
		zap.String("id", rec.ID),
		zap.String("code", req.Code),
		zap.Int("trades", res.TotalTrades()),
		zap.Float64("total_return", res.TotalReturn),
	)
	return rec, nil
}

// runJob executes a backtest in the background and updates job status.
func (h *BacktestHandler) runJob(jobID, user string, req RunRequest, from, to time.Time) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	rec, err := h.execute(ctx, user, req, from, to)
	if err != nil {
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			var coreErr *core.Error
			if errors.As(err, &coreErr) {
				j.Error = coreErr
			} else {
				j.Error = core.WrapError(core.ErrStorageFailed, err)
			}
		})
		return
	}

	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = rec
	})
}

// List returns the caller's stored results.
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := result.ListFilter{
		UserID: userID(r),
		Code:   q.Get("code"),
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrConfigInvalid, err))
			return
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrConfigInvalid, err))
			return
		}
		filter.To = t
	}
	filter.Limit = intQuery(q.Get("limit"), 50)
	filter.Offset = intQuery(q.Get("offset"), 0)

	records, err := h.results.List(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	total, err := h.results.Count(r.Context(), filter)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	if records == nil {
		records = []result.Record{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"results": records,
		"total":   total,
	})
}

// Get returns a single stored result.
func (h *BacktestHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.results.GetByID(r.Context(), userID(r), r.PathValue("id"))
	if err != nil {
		response.Error(w, statusFor(err), err)
		return
	}
	response.JSON(w, http.StatusOK, rec)
}

// Delete removes a stored result and its archived snapshot.
func (h *BacktestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	id := r.PathValue("id")

	if err := h.results.Delete(r.Context(), user, id); err != nil {
		response.Error(w, statusFor(err), err)
		return
	}

	if h.archiver != nil {
		if err := h.archiver.Remove(r.Context(), user, id); err != nil {
			h.logger.Warn("removing archived snapshot failed",
				zap.String("id", id), zap.Error(err))
		}
	}

	response.JSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// JobStatus returns the status of an async backtest job.
func (h *BacktestHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobs.Get(r.PathValue("id"))
	if err != nil {
		response.Error(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}
	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrResultNotFound), errors.Is(err, core.ErrNoData):
		return http.StatusNotFound
	case errors.Is(err, core.ErrConfigInvalid),
		errors.Is(err, core.ErrConfigMissing),
		errors.Is(err, core.ErrInvalidCash),
		errors.Is(err, core.ErrInvalidPosition),
		errors.Is(err, core.ErrEmptyConditions),
		errors.Is(err, core.ErrUnknownIndicator):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrProviderTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrProviderFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func intQuery(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
